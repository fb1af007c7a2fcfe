package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"satorugram/internal/app/stream"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/auth/jwt"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/resp"
)

// HandleStream upgrades the request to the sync stream. The session token
// may be passed as ?token= since browsers cannot set headers on WebSockets.
// Anonymous connections receive change notifications without presence.
func HandleStream(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var current *user.User
		if jwt.GetPayloadFromContext(r) != nil {
			u, err := deps.currentUser(r)
			if err != nil {
				resp.RespondError(w, r, err)
				return
			}
			current = u
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := stream.NewClient(deps.Hub, conn, current, stream.Options{
			Bus:               deps.Bus,
			Presence:          deps.Presence,
			PollInterval:      deps.Config.PollInterval,
			HeartbeatInterval: deps.Config.HeartbeatInterval,
		})

		client.Serve()
	}
}
