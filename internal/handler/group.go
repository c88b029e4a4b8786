package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/group"
	"github.com/dukerupert/chorely/internal/websocket"
)

type GroupHandler struct {
	groups   *group.Service
	notifier Notifier
	logger   *slog.Logger
}

func NewGroupHandler(gs *group.Service, n Notifier, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: gs, notifier: n, logger: logger}
}

func (h *GroupHandler) broadcast(msg websocket.Message) {
	if h.notifier != nil {
		h.notifier.Broadcast(msg)
	}
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	g, err := h.groups.Create(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	g, err := h.groups.Get(auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JoinCode string `json:"joinCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	userID := auth.UserID(r.Context())
	g, err := h.groups.Join(userID, req.JoinCode)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.broadcast(websocket.NewMessage(g.ID, "member", "joined", userID, nil))
	writeJSON(w, http.StatusOK, g)
}

// Leave removes the caller from a group and closes their open change feeds
// for it on this instance.
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID int64 `json:"groupId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	userID := auth.UserID(r.Context())
	res, err := h.groups.Leave(userID, req.GroupID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Disconnect(res.GroupID, userID)
	}
	if !res.GroupDeleted {
		extra := map[string]any{}
		if res.PromotedUserID != nil {
			extra["promoted_user_id"] = *res.PromotedUserID
		}
		h.broadcast(websocket.NewMessage(res.GroupID, "member", "left", userID, extra))
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GroupHandler) Activities(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryInt64(r, "groupId")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	feed, err := h.groups.Feed(auth.UserID(r.Context()), groupID, limit)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
