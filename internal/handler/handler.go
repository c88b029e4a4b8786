// Package handler implements the JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/websocket"
)

// Notifier fans change notifications out to WebSocket clients. Both
// *websocket.Hub and the NATS bridge satisfy it.
type Notifier interface {
	Broadcast(msg websocket.Message)
	Disconnect(groupID, userID int64) int
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to its HTTP status. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, kind.Status(), map[string]string{"error": apperr.Message(err)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidInput("request body is required")
		}
		return apperr.InvalidInput("invalid JSON")
	}
	return nil
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid id")
	}
	return id, nil
}

// queryInt64 parses an optional positive integer query parameter. A missing
// parameter yields 0.
func queryInt64(r *http.Request, name string) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.InvalidInput("invalid " + name)
	}
	return n, nil
}

func queryLimit(r *http.Request) (int, error) {
	n, err := queryInt64(r, "limit")
	return int(n), err
}

// optionalID distinguishes an absent JSON field from an explicit null.
type optionalID struct {
	Set   bool
	Value *int64
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
