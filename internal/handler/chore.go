package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/websocket"
)

type ChoreHandler struct {
	chores   *chore.Service
	notifier Notifier
	logger   *slog.Logger
}

func NewChoreHandler(cs *chore.Service, n Notifier, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, notifier: n, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.notifier != nil {
		h.notifier.Broadcast(msg)
	}
}

type createChoreRequest struct {
	Title          string `json:"title"`
	Frequency      string `json:"frequency"`
	FrequencyValue *int   `json:"frequencyValue"`
	AssignmentType string `json:"assignmentType"`
	GroupID        int64  `json:"groupId"`
	AssignedUserID *int64 `json:"assignedUserId"`
}

type updateChoreRequest struct {
	Title          *string    `json:"title"`
	Frequency      *string    `json:"frequency"`
	FrequencyValue *int       `json:"frequencyValue"`
	AssignmentType *string    `json:"assignmentType"`
	IsActive       *bool      `json:"isActive"`
	AssignedUserID optionalID `json:"assignedUserId"`
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryInt64(r, "groupId")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	chores, err := h.chores.ListForGroup(auth.UserID(r.Context()), groupID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Mine(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryInt64(r, "groupId")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	chores, err := h.chores.ListMine(auth.UserID(r.Context()), groupID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.chores.Create(auth.UserID(r.Context()), chore.CreateInput{
		Title:          req.Title,
		Frequency:      req.Frequency,
		FrequencyValue: req.FrequencyValue,
		AssignmentType: req.AssignmentType,
		GroupID:        req.GroupID,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, "chore", "created", c.ID, nil))
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.chores.Get(auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var req updateChoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.chores.Update(auth.UserID(r.Context()), id, chore.UpdateInput{
		Title:          req.Title,
		Frequency:      req.Frequency,
		FrequencyValue: req.FrequencyValue,
		AssignmentType: req.AssignmentType,
		IsActive:       req.IsActive,
		SetAssignee:    req.AssignedUserID.Set,
		AssignedUserID: req.AssignedUserID.Value,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, "chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.chores.Delete(auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, "chore", "deleted", c.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.chores.Complete(auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	extra := map[string]any{"next_due_date": res.NextDueDate}
	if res.Chore.AssignedUserID != nil {
		extra["assigned_user_id"] = *res.Chore.AssignedUserID
	}
	h.broadcast(websocket.NewMessage(res.Chore.GroupID, "chore", "completed", id, extra))
	writeJSON(w, http.StatusOK, res)
}

func (h *ChoreHandler) Completions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	history, err := h.chores.Completions(auth.UserID(r.Context()), id, limit)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
