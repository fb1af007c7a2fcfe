package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"satorugram/internal/pkg/resp"
)

// HandleHeartbeat marks the caller online. Clients without a stream
// connection call it every few seconds.
func HandleHeartbeat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := deps.Presence.Heartbeat(r.Context(), me.ID); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]int{"online": deps.Presence.OnlineCount(r.Context())})
	}
}

// HandleOnline returns who is online.
func HandleOnline(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := deps.Presence.OnlineUsers(r.Context())
		resp.RespondSuccess(w, r, map[string]any{
			"count": len(users),
			"users": users,
		})
	}
}

// HandleUserPresence returns whether one user is online and when they were last seen.
func HandleUserPresence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		data := map[string]any{
			"userId": id,
			"online": deps.Presence.IsOnline(r.Context(), id),
		}
		if last, ok := deps.Presence.LastSeen(r.Context(), id); ok {
			data["lastSeen"] = last.UnixMilli()
		}

		resp.RespondSuccess(w, r, data)
	}
}
