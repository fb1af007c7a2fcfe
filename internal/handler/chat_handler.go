package handler

import (
	"net/http"

	"satorugram/internal/pkg/req"
	"satorugram/internal/pkg/resp"
)

type SendMessageInput struct {
	Text string `json:"text"`
}

// HandleListChatMessages returns the global chat log, oldest first.
func HandleListChatMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Chat.List(r.Context()))
	}
}

// HandleSendChatMessage posts to the global chat as the caller.
func HandleSendChatMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input SendMessageInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		msg, err := deps.Chat.Send(r.Context(), *me, input.Text)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, msg)
	}
}
