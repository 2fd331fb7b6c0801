package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	gate, err := schema.NewGate(schema.DefaultCatalog())
	require.NoError(t, err)
	mgr := NewManager(memory.NewStore(), gate)
	ctx := context.Background()

	for i := range 1000 {
		id := fmt.Sprintf("script-%d", i)
		_, _ = mgr.Open(ctx, id)
		_ = mgr.Close(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("lock leak: %d entries remain", n)
	}
	if n := len(mgr.sessions); n != 0 {
		t.Errorf("session leak: %d entries remain", n)
	}
}
