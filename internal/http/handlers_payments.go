package http

import (
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
)

// pageResponse is the list envelope.
type pageResponse struct {
	Content []core.Payment `json:"content"`
	Page    int64          `json:"page"`
	Size    int64          `json:"size"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	draft, err := ParsePaymentDraft(w, r)
	if err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}

	p, err := s.payments.Create(r.Context(), draft)
	if err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, logger, log.OpUpdate, err)
		return
	}
	draft, err := ParsePaymentDraft(w, r)
	if err != nil {
		writeError(w, r, logger, log.OpUpdate, err)
		return
	}

	p, err := s.payments.Update(r.Context(), id, draft)
	if err != nil {
		writeError(w, r, logger, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, logger, log.OpDelete, err)
		return
	}
	if err := s.payments.Delete(r.Context(), id); err != nil {
		writeError(w, r, logger, log.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, logger, log.OpRead, err)
		return
	}
	p, err := s.payments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, logger, log.OpRead, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	q := r.URL.Query()

	page, err := ParsePageParams(q)
	if err != nil {
		writeError(w, r, logger, log.OpList, err)
		return
	}
	filters, err := ParsePaymentFilters(q)
	if err != nil {
		writeError(w, r, logger, log.OpList, err)
		return
	}

	payments, err := s.payments.List(r.Context(), page.Page, page.Size, filters)
	if err != nil {
		writeError(w, r, logger, log.OpList, err)
		return
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	NewResponse().JSON(pageResponse{Content: payments, Page: page.Page, Size: page.Size}).Write(w)
}
