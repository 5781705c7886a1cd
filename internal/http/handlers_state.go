package http

import (
	"errors"
	"io"
	"net/http"

	"envelopes/internal/core"
)

const summaryCacheKey = "summary"

// summaryResponse is the aggregate view plus a preformatted total.
type summaryResponse struct {
	core.Summary
	TotalFormatted string `json:"totalFormatted"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.summaryCache.Get(summaryCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	sum := s.svc.Ledger().Summary()
	resp := summaryResponse{
		Summary:        sum,
		TotalFormatted: core.FormatCents(sum.TotalBalanceCents),
	}
	s.summaryCache.Set(summaryCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status(r.Context()))
}

func (s *Server) handleAllocationPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.svc.PlanAllocation()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type autoAllocateRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (s *Server) handleAutoAllocate(w http.ResponseWriter, r *http.Request) {
	var req autoAllocateRequest
	if err := decodeBody(r, &req); err != nil {
		// An empty body is simply an unconfirmed request, not a bad one.
		if !errors.Is(err, io.EOF) {
			writeBadRequest(w, err)
			return
		}
	}
	if !req.Confirmed {
		writeError(w, r, core.ErrConfirmationRequired)
		return
	}

	plan, err := s.svc.AutoAllocate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	writeJSON(w, http.StatusOK, plan)
}

type maintenanceResponse struct {
	PrunedTransactions int `json:"prunedTransactions"`
	RemovedEnvelopes   int `json:"removedEnvelopes"`
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	pruned, cleaned := s.svc.RunMaintenance(r.Context())

	s.summaryCache.Clear()
	writeJSON(w, http.StatusOK, maintenanceResponse{
		PrunedTransactions: pruned,
		RemovedEnvelopes:   cleaned,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := s.svc.Export()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="envelopes.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// handleImport replaces the whole state with the posted blob. The
// overwrite is destructive, so it is gated behind confirmed=true.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirmed") != "true" {
		writeError(w, r, core.ErrConfirmationRequired)
		return
	}

	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.svc.Import(r.Context(), blob); err != nil {
		writeError(w, r, err)
		return
	}

	s.summaryCache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	TransactionRetentionDays int `json:"transactionRetentionDays"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Ledger().Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.svc.SetRetentionDays(r.Context(), req.TransactionRetentionDays); err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Ledger().Settings())
}

type bankBalanceRequest struct {
	Balance string `json:"balance"`
}

type bankBalanceResponse struct {
	BankBalanceCents int64 `json:"bankBalanceCents"`
}

func (s *Server) handleSetBankBalance(w http.ResponseWriter, r *http.Request) {
	var req bankBalanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	cents, err := core.ParseSignedDecimalToCents(req.Balance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.svc.SetBankBalance(r.Context(), cents)
	s.summaryCache.Clear()
	writeJSON(w, http.StatusOK, bankBalanceResponse{BankBalanceCents: cents})
}
