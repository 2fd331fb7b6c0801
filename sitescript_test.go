package sitescript_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/sitescript"
	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/arbiter"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditor_Defaults(t *testing.T) {
	ed, err := sitescript.New()
	require.NoError(t, err)

	assert.Same(t, schema.DefaultCatalog(), ed.Catalog())
	assert.NotNil(t, ed.Store())
	assert.NotNil(t, ed.Sessions())
	assert.NotEmpty(t, strings.TrimSpace(sitescript.Version))
}

func TestEditor_ValidateAndFormat(t *testing.T) {
	ed, err := sitescript.New()
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, ed.Validate(ctx, []byte(`[{"verb":"setTitle","title":"A"}]`)))
	assert.ErrorIs(t, ed.Validate(ctx, []byte(`{"actions":[{"verb":"nope"}]}`)), domain.ErrInvalidText)

	out, err := ed.Format(ctx, []byte(`{"actions":[{"title":"A","verb":"setTitle"}]}`), true)
	require.NoError(t, err)
	assert.Equal(t, `{"actions":[{"title":"A","verb":"setTitle"}]}`, string(out))

	_, err = ed.Format(ctx, []byte(`{"actions":[{"verb":"setTitle"}]}`), false)
	assert.ErrorIs(t, err, domain.ErrInvalidText)
}

func TestEditor_Decode_RespectsCatalog(t *testing.T) {
	ed, err := sitescript.New()
	require.NoError(t, err)

	doc, err := ed.Decode([]byte(`{"actions":[{"verb":"setTitle","title":"A"}]}`))
	require.NoError(t, err)

	_, _, err = doc.AddSubAction(doc.Identities()[0], domain.NewAction("addSPField", nil))
	assert.ErrorIs(t, err, domain.ErrStructuralViolation)
}

func TestEditor_EditSession(t *testing.T) {
	store := memory.NewStore()
	clock := arbiter.NewManualClock()
	metrics := arbiter.NewMetrics(prometheus.NewRegistry())
	var changed []domain.EventType

	ed, err := sitescript.New(
		sitescript.WithStore(store),
		sitescript.WithClock(clock),
		sitescript.WithMetrics(metrics),
		sitescript.WithLifecycleHooks(domain.LifecycleHooks{
			OnDocumentChanged: func(_ context.Context, e *domain.ChangeEvent) {
				changed = append(changed, e.Type)
			},
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := ed.Open(ctx, "team-site")
	require.NoError(t, err)

	text, err := sess.Arbiter().ApplyStructured(ctx, func(d *domain.Document) (*domain.Document, error) {
		next, _, err := d.AddAction(domain.NewAction("setTitle", map[string]any{"title": "Contoso"}))
		return next, err
	})
	require.NoError(t, err)

	sess.Arbiter().OnTextChanged(ctx, text)
	sess.Arbiter().OnTextChanged(ctx, []byte(`{"actions":[{"verb":"applyTheme","themeName":"Blue"}]}`))
	clock.Advance(arbiter.DefaultQuiescence)

	saved, err := ed.Sessions().Save(ctx, "team-site")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.JSONEq(t, `{"actions":[{"verb":"applyTheme","themeName":"Blue"}]}`, string(saved.Content))

	assert.Equal(t, []domain.EventType{domain.EventStructuredEdit, domain.EventTextAccepted}, changed)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EchoesSuppressed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TextEdits.WithLabelValues(arbiter.ResultAccepted)))
}
