package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lanube360/mirador-lotes/internal/catalog"
	"github.com/lanube360/mirador-lotes/internal/lifecycle"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/internal/validate"
	"github.com/lanube360/mirador-lotes/pkg/core"
)

// maxBodyBytes bounds PATCH and contact request bodies.
const maxBodyBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.state.State()
	code := http.StatusOK
	status := "ok"
	// Handlers mounted without Serve (tests, embedding) stay Idle and are healthy.
	if state == lifecycle.TornDown {
		code = http.StatusServiceUnavailable
		status = "shutting down"
	}
	writeJSON(w, code, map[string]string{"status": status, "state": state.String()})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Project(r.Context())
	if err != nil {
		s.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListParcels(w http.ResponseWriter, r *http.Request) {
	parcels, err := s.catalog.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.catalogError(w, err)
		return
	}
	if parcels == nil {
		parcels = []core.ParcelSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"parcels": parcels, "count": len(parcels)})
}

func (s *Server) handleGetParcel(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateParcel(w http.ResponseWriter, r *http.Request) {
	var u core.ParcelUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.catalog.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScenePins(w http.ResponseWriter, r *http.Request) {
	scene := chi.URLParam(r, "scene")
	pins, err := s.catalog.ScenePins(r.Context(), scene)
	if err != nil {
		s.catalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scene": scene, "spots": pins})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var form validate.ContactForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res := form.Validate()
	if !res.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	contact := form.Normalized()
	s.log.Info("Contact request received",
		"project", s.catalog.ProjectSlug(),
		"parcel", contact.ParcelID,
		"name", contact.Name,
		"email", contact.Email)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "contact": contact})
}

// catalogError maps catalog and storage errors to HTTP statuses.
func (s *Server) catalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrParcelNotFound), errors.Is(err, catalog.ErrProjectNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidStatus), errors.Is(err, catalog.ErrInvalidUpdate):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotReady):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error("Catalog request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
