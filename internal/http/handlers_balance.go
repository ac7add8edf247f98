package http

import (
	"net/http"

	"expenses/internal/log"
)

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	req, err := ParseBalanceRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, logger, log.OpRead, err)
		return
	}

	b, err := s.balance.Balance(r.Context(), req)
	if err != nil {
		writeError(w, r, logger, log.OpRead, err)
		return
	}
	NewResponse().JSON(b).Write(w)
}
