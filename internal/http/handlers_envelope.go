package http

import (
	"net/http"

	"envelopes/internal/ledger"
)

type createEnvelopeRequest struct {
	Name         string `json:"name"`
	Target       string `json:"target"`
	IsCreditCard bool   `json:"isCreditCard"`
}

type updateEnvelopeRequest struct {
	Name         *string `json:"name,omitempty"`
	Target       *string `json:"target,omitempty"`
	IsCreditCard *bool   `json:"isCreditCard,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

func (s *Server) handleListEnvelopes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Ledger().Envelopes())
}

func (s *Server) handleGetEnvelope(w http.ResponseWriter, r *http.Request) {
	env, err := s.svc.Ledger().Envelope(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req createEnvelopeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	env, err := s.svc.CreateEnvelope(r.Context(), sanitizeInput(req.Name), req.Target, req.IsCreditCard)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	writeJSON(w, http.StatusCreated, env)
}

func (s *Server) handleUpdateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req updateEnvelopeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	patch := ledger.EnvelopePatch{
		Target:       req.Target,
		IsCreditCard: req.IsCreditCard,
		IsActive:     req.IsActive,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		patch.Name = &name
	}

	id := r.PathValue("id")
	if err := s.svc.UpdateEnvelope(r.Context(), id, patch); err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	env, err := s.svc.Ledger().Envelope(id)
	if err != nil {
		// Unknown ids are a silent no-op in the registry; report 404 here.
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirmed") == "true"

	if err := s.svc.DeleteEnvelope(r.Context(), r.PathValue("id"), confirmed); err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}
