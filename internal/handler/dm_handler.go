package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"satorugram/internal/app/dm"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/req"
	"satorugram/internal/pkg/resp"
)

// ConversationView is a conversation with the partner's profile attached.
// Partner is nil when the partner's account is gone.
type ConversationView struct {
	dm.Conversation
	Partner *user.Profile `json:"partner"`
	Online  bool          `json:"online"`
}

// HandleListConversations returns the caller's conversations, most recent first.
func HandleListConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		conversations := deps.DM.ConversationsFor(r.Context(), me.ID)
		views := make([]ConversationView, 0, len(conversations))
		for _, c := range conversations {
			view := ConversationView{
				Conversation: c,
				Online:       deps.Presence.IsOnline(r.Context(), c.PartnerID),
			}
			if partner, err := deps.Users.GetByID(r.Context(), c.PartnerID); err == nil {
				profile := partner.Profile()
				view.Partner = &profile
			}
			views = append(views, view)
		}

		resp.RespondSuccess(w, r, views)
	}
}

// HandleUnreadCount returns the number of unread direct messages of the caller.
func HandleUnreadCount(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]int{"unread": deps.DM.UnreadCount(r.Context(), me.ID)})
	}
}

// HandleGetConversation returns the messages between the caller and partnerID.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		partner, err := deps.Users.GetByID(r.Context(), chi.URLParam(r, "partnerID"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"partner":  partner.Profile(),
			"online":   deps.Presence.IsOnline(r.Context(), partner.ID),
			"messages": deps.DM.Conversation(r.Context(), me.ID, partner.ID),
		})
	}
}

// HandleSendDirectMessage sends a direct message to partnerID.
func HandleSendDirectMessage(deps *AppDeps) http.HandlerFunc {
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

		partner, err := deps.Users.GetByID(r.Context(), chi.URLParam(r, "partnerID"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		msg, err := deps.DM.Send(r.Context(), *me, partner.ID, input.Text)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, msg)
	}
}

// HandleMarkConversationRead marks everything partnerID sent the caller as read.
func HandleMarkConversationRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := deps.DM.MarkConversationAsRead(r.Context(), me.ID, chi.URLParam(r, "partnerID")); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]int{"unread": deps.DM.UnreadCount(r.Context(), me.ID)})
	}
}
