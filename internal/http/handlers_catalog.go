package http

import (
	"net/http"

	"expenses/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = r.URL.Query().Get("kind")
	}

	categories, err := s.catalog.ListCategories(r.Context(), kind)
	if err != nil {
		writeError(w, r, log.FromContext(r.Context()), log.OpList, err)
		return
	}
	NewResponse().JSON(categories).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}

	c, err := s.catalog.CreateCategory(r.Context(), req.Name, req.Icon, req.Kind)
	if err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.catalog.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, log.FromContext(r.Context()), log.OpList, err)
		return
	}
	NewResponse().JSON(wallets).Write(w)
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	var req walletRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}

	wallet, err := s.catalog.CreateWallet(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, logger, log.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(wallet).Write(w)
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, logger, log.OpDelete, err)
		return
	}
	if err := s.catalog.DeleteWallet(r.Context(), id); err != nil {
		writeError(w, r, logger, log.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
