package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/store"
)

const maxUserNameLen = 100

type UserHandler struct {
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, logger: logger}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if user == nil {
		writeError(w, h.logger, r, apperr.NotFound("user not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, h.logger, r, apperr.InvalidInput("name is required"))
		return
	}
	if utf8.RuneCountInString(name) > maxUserNameLen {
		writeError(w, h.logger, r, apperr.InvalidInput("name is too long"))
		return
	}

	user, err := h.userStore.UpdateName(auth.UserID(r.Context()), name)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if user == nil {
		writeError(w, h.logger, r, apperr.NotFound("user not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
