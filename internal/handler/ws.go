package handler

import (
	"net/http"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/group"
	"github.com/dukerupert/chorely/internal/websocket"
)

// GroupFeedAuthorizer admits WebSocket connections for ?groupId= when the
// session user is a member of that group.
func GroupFeedAuthorizer(gs *group.Service) websocket.Authorizer {
	return func(r *http.Request) (int64, error) {
		groupID, err := queryInt64(r, "groupId")
		if err != nil {
			return 0, err
		}
		if groupID == 0 {
			return 0, apperr.InvalidInput("groupId is required")
		}
		ok, err := gs.IsMember(auth.UserID(r.Context()), groupID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, apperr.Forbidden("not a member of this group")
		}
		return groupID, nil
	}
}
