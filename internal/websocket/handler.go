package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
)

// Authorizer resolves which group a connecting request may watch. It returns
// an apperr error when the request is not allowed.
type Authorizer func(r *http.Request) (groupID int64, err error)

// HandleWebSocket upgrades authorized requests and runs them as Hub clients.
// Authorization happens before the upgrade so failures get a normal HTTP
// status.
func HandleWebSocket(hub *Hub, authorize Authorizer, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := authorize(r)
		if err != nil {
			kind := apperr.KindOf(err)
			if kind == apperr.KindInternal {
				logger.Error("websocket authorize", "error", err)
			}
			http.Error(w, apperr.Message(err), kind.Status())
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns:     originPatterns,
			InsecureSkipVerify: len(originPatterns) == 0,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		userID := auth.UserID(r.Context())
		logger.Debug("websocket connected", "group_id", groupID, "user_id", userID)
		client := NewClient(hub, conn, groupID, userID)
		client.Run(r.Context())
		logger.Debug("websocket closed", "group_id", groupID, "user_id", userID)
	}
}
