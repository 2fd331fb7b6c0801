package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/export"
	"github.com/go-chi/chi/v5"
)

// ListDesigns handles the GET /designs request.
func (s *Server) ListDesigns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Designs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CreateDesign handles the POST /designs request. Omitted fields take the defaults of a
// new team-site design; any id in the body is ignored.
func (s *Server) CreateDesign(w http.ResponseWriter, r *http.Request) {
	design := domain.NewSiteDesign("", "")
	id := design.ID
	if !s.decode(w, r, design) {
		return
	}
	design.ID = id
	if err := s.saveDesign(r.Context(), design); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, design)
}

// GetDesign handles the GET /designs/{id} request.
func (s *Server) GetDesign(w http.ResponseWriter, r *http.Request) {
	design, err := s.Designs.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, design)
}

// UpdateDesign handles the PUT /designs/{id} request. Fields present in the body replace
// those of the stored design.
func (s *Server) UpdateDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	design, err := s.Designs.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.decode(w, r, design) {
		return
	}
	design.ID = id
	if err := s.saveDesign(r.Context(), design); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, design)
}

// DeleteDesign handles the DELETE /designs/{id} request. The referenced scripts are kept.
func (s *Server) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	if err := s.Designs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportDesign handles the GET /designs/{id}/export request.
func (s *Server) ExportDesign(w http.ResponseWriter, r *http.Request) {
	design, err := s.Designs.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	scripts, err := s.loadScripts(r.Context(), design.SiteScriptIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pkg, err := export.ForDesign(design, scripts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pkg)
}

// ExportScript handles the GET /scripts/{id}/export request.
func (s *Server) ExportScript(w http.ResponseWriter, r *http.Request) {
	script, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	pkg, err := export.ForScript(script)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pkg)
}

// saveDesign stores the design once it is complete and every script it lists exists.
func (s *Server) saveDesign(ctx context.Context, design *domain.SiteDesign) error {
	if err := design.Validate(); err != nil {
		return err
	}
	if _, err := s.loadScripts(ctx, design.SiteScriptIDs); err != nil {
		return err
	}
	return s.Designs.Save(ctx, design)
}

func (s *Server) loadScripts(ctx context.Context, ids []string) ([]*domain.SiteScript, error) {
	scripts := make([]*domain.SiteScript, 0, len(ids))
	for _, id := range ids {
		script, err := s.Sessions.Load(ctx, id)
		if errors.Is(err, domain.ErrScriptNotFound) {
			return nil, fmt.Errorf("%w: site script %s does not exist", domain.ErrInvalidDesign, id)
		}
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}
