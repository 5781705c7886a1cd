package http

import (
	"net/http"

	"envelopes/internal/ledger"
)

type addTransactionRequest struct {
	FromEnvelopeID string `json:"fromEnvelopeId"`
	ToEnvelopeID   string `json:"toEnvelopeId"`
	Amount         string `json:"amount"`
	Note           string `json:"note"`
}

type updateTransactionRequest struct {
	FromEnvelopeID *string `json:"fromEnvelopeId,omitempty"`
	ToEnvelopeID   *string `json:"toEnvelopeId,omitempty"`
	Amount         *string `json:"amount,omitempty"`
	Note           *string `json:"note,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Ledger().Transactions())
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	tx, err := s.svc.AddTransaction(r.Context(),
		req.FromEnvelopeID, req.ToEnvelopeID, req.Amount, sanitizeInput(req.Note))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	patch := ledger.TransactionPatch{
		FromEnvelopeID: req.FromEnvelopeID,
		ToEnvelopeID:   req.ToEnvelopeID,
		Amount:         req.Amount,
	}
	if req.Note != nil {
		note := sanitizeInput(*req.Note)
		patch.Note = &note
	}

	tx, err := s.svc.UpdateTransaction(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}
