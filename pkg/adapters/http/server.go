package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/aretw0/sitescript"
	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/export"
	"github.com/aretw0/sitescript/pkg/ports"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/aretw0/sitescript/pkg/session"
	"github.com/go-chi/chi/v5"
)

// MaxTextBytes bounds the body of a raw text submission.
const MaxTextBytes = 1 << 20

// Server exposes script storage and editing sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	Designs  ports.DesignStore
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager, typically the one whose Hooks were given to the
// session manager.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithDesigns sets the site design store. Designs are kept in memory otherwise.
func WithDesigns(store ports.DesignStore) Option {
	return func(s *Server) {
		s.Designs = store
	}
}

// NewHandler creates a new HTTP handler over the session manager.
func NewHandler(mgr *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: mgr,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	if s.Designs == nil {
		s.Designs = memory.NewDesignStore()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/verbs", s.ListVerbs)
	r.Get("/verbs/{verb}/subactions", s.ListSubactions)

	r.Route("/scripts", func(r chi.Router) {
		r.Get("/", s.ListScripts)
		r.Post("/", s.CreateScript)
		r.Get("/{id}", s.GetScript)
		r.Delete("/{id}", s.DeleteScript)
		r.Get("/{id}/export", s.ExportScript)
	})

	r.Route("/designs", func(r chi.Router) {
		r.Get("/", s.ListDesigns)
		r.Post("/", s.CreateDesign)
		r.Get("/{id}", s.GetDesign)
		r.Put("/{id}", s.UpdateDesign)
		r.Delete("/{id}", s.DeleteDesign)
		r.Get("/{id}/export", s.ExportDesign)
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/", s.OpenSession)
		r.Get("/", s.GetSession)
		r.Delete("/", s.CloseSession)
		r.Get("/events", s.SubscribeEvents)
		r.Post("/actions", s.AddAction)
		r.Put("/actions/{identity}", s.ReplaceAction)
		r.Delete("/actions/{identity}", s.RemoveAction)
		r.Post("/reorder", s.ReorderActions)
		r.Post("/actions/{parent}/subactions", s.AddSubAction)
		r.Delete("/actions/{parent}/subactions/{identity}", s.RemoveSubAction)
		r.Post("/actions/{parent}/reorder", s.ReorderSubActions)
		r.Post("/toggle/{identity}", s.ToggleEditing)
		r.Put("/text", s.PutText)
		r.Post("/save", s.SaveSession)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "sitescript-http",
		"version": strings.TrimSpace(sitescript.Version),
	})
}

// ListVerbs handles the GET /verbs request: the root actions a script may hold.
func (s *Server) ListVerbs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog().Verbs())
}

// ListSubactions handles the GET /verbs/{verb}/subactions request.
func (s *Server) ListSubactions(w http.ResponseWriter, r *http.Request) {
	verb := chi.URLParam(r, "verb")
	if _, ok := s.catalog().SchemaFor(verb); !ok {
		s.writeError(w, fmt.Errorf("%w: %q", schema.ErrUnknownVerb, verb))
		return
	}
	s.writeJSON(w, http.StatusOK, s.catalog().SubactionsOf(verb))
}

// ListScripts handles the GET /scripts request.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

type createScriptRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateScript handles the POST /scripts request.
func (s *Server) CreateScript(w http.ResponseWriter, r *http.Request) {
	var body createScriptRequest
	if !s.decode(w, r, &body) {
		return
	}
	script, err := s.Sessions.Create(r.Context(), body.Title, body.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, script)
}

// GetScript handles the GET /scripts/{id} request.
func (s *Server) GetScript(w http.ResponseWriter, r *http.Request) {
	script, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, script)
}

// DeleteScript handles the DELETE /scripts/{id} request.
func (s *Server) DeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenSession handles the POST /sessions/{id} request.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(sess, s.catalog()))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(sess, s.catalog()))
}

// CloseSession handles the DELETE /sessions/{id} request. Unsaved changes are discarded.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	Verb       string         `json:"verb"`
	Properties map[string]any `json:"properties"`
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AddAction handles the POST /sessions/{id}/actions request. Properties missing from the
// body take the catalog defaults of the verb.
func (s *Server) AddAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if !s.decode(w, r, &body) {
		return
	}
	action, err := s.catalog().NewAction(body.Verb)
	if err != nil {
		s.writeError(w, err)
		return
	}
	maps.Copy(action.Properties, body.Properties)

	var added string
	s.edit(w, r, http.StatusCreated, func(d *domain.Document) (*domain.Document, error) {
		next, id, err := d.AddAction(action)
		added = id
		return next, err
	}, &added)
}

// AddSubAction handles the POST /sessions/{id}/actions/{parent}/subactions request.
func (s *Server) AddSubAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if !s.decode(w, r, &body) {
		return
	}
	parentID := chi.URLParam(r, "parent")

	var added string
	s.edit(w, r, http.StatusCreated, func(d *domain.Document) (*domain.Document, error) {
		parent, ok := d.Find(parentID)
		if !ok {
			return d, fmt.Errorf("%w: %s", domain.ErrNotFound, parentID)
		}
		action, err := s.catalog().NewSubAction(parent.Verb, body.Verb)
		if err != nil {
			return d, err
		}
		maps.Copy(action.Properties, body.Properties)
		next, id, err := d.AddSubAction(parentID, action)
		added = id
		return next, err
	}, &added)
}

// ReplaceAction handles the PUT /sessions/{id}/actions/{identity} request. The body's
// properties replace those of the node; its verb and subactions are kept.
func (s *Server) ReplaceAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if !s.decode(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "identity")

	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		current, ok := d.Find(id)
		if !ok {
			return d, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		if body.Verb != "" && body.Verb != current.Verb {
			return d, fmt.Errorf("%w: cannot change verb of %s", domain.ErrStructuralViolation, id)
		}
		updated := current.Clone()
		updated.Properties = body.Properties
		if updated.Properties == nil {
			updated.Properties = map[string]any{}
		}
		return d.ReplaceAction(id, updated)
	}, nil)
}

// RemoveAction handles the DELETE /sessions/{id}/actions/{identity} request.
func (s *Server) RemoveAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identity")
	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		return d.RemoveAction(id)
	}, nil)
}

// RemoveSubAction handles the DELETE /sessions/{id}/actions/{parent}/subactions/{identity} request.
func (s *Server) RemoveSubAction(w http.ResponseWriter, r *http.Request) {
	parentID, id := chi.URLParam(r, "parent"), chi.URLParam(r, "identity")
	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		return d.RemoveSubAction(parentID, id)
	}, nil)
}

// ReorderActions handles the POST /sessions/{id}/reorder request.
func (s *Server) ReorderActions(w http.ResponseWriter, r *http.Request) {
	var body reorderRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		return d.ReorderActions(body.From, body.To)
	}, nil)
}

// ReorderSubActions handles the POST /sessions/{id}/actions/{parent}/reorder request.
func (s *Server) ReorderSubActions(w http.ResponseWriter, r *http.Request) {
	var body reorderRequest
	if !s.decode(w, r, &body) {
		return
	}
	parentID := chi.URLParam(r, "parent")
	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		return d.ReorderSubActions(parentID, body.From, body.To)
	}, nil)
}

// ToggleEditing handles the POST /sessions/{id}/toggle/{identity} request.
func (s *Server) ToggleEditing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identity")
	s.edit(w, r, http.StatusOK, func(d *domain.Document) (*domain.Document, error) {
		return d.ToggleEditing(id)
	}, nil)
}

// PutText handles the PUT /sessions/{id}/text request. The raw body is the new content of
// the text view; it is validated once the quiescence window elapses, so the response
// reports the pending state.
func (s *Server) PutText(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	text, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxTextBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, requestError{Error: "Invalid request body"})
		s.logger.Warn("PutText: Invalid request body", "err", err)
		return
	}
	sess.Arbiter().OnTextChanged(r.Context(), text)
	s.writeJSON(w, http.StatusAccepted, newSessionView(sess, s.catalog()))
}

// SaveSession handles the POST /sessions/{id}/save request.
func (s *Server) SaveSession(w http.ResponseWriter, r *http.Request) {
	script, err := s.Sessions.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, script)
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.Info("SSE: Subscribing to script events", "script_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "script_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// edit applies a structured edit under the script lock and answers with the session view
// and the diff. When added is non-nil it names the identity of the added node.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, fn func(*domain.Document) (*domain.Document, error), added *string) {
	id := chi.URLParam(r, "id")
	var view sessionView
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		sess, err := s.Sessions.Get(id)
		if err != nil {
			return err
		}
		prev := sess.Document()
		if _, err := sess.Arbiter().ApplyStructured(ctx, fn); err != nil {
			return err
		}
		view = newSessionView(sess, s.catalog())
		view.Diff = domain.Diff(prev, sess.Document())
		if added != nil {
			view.Identity = *added
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, view)
}

func (s *Server) catalog() *schema.Catalog {
	return s.Sessions.Gate().Catalog()
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxTextBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, requestError{Error: "Invalid request body"})
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := requestError{Error: err.Error()}
	for _, fe := range schema.ValidationErrors(err) {
		body.Fields = append(body.Fields, fe.Error())
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, body)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrScriptNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrDesignNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIndexOutOfBounds),
		errors.Is(err, schema.ErrUnknownVerb):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStructuralViolation),
		errors.Is(err, session.ErrTextPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidText),
		errors.Is(err, domain.ErrInvalidDesign),
		errors.Is(err, export.ErrMissingScript):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
