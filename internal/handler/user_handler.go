package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"satorugram/internal/app/feed"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/req"
	"satorugram/internal/pkg/resp"
)

// Member is a user as shown in lists, with their presence.
type Member struct {
	user.Profile
	Online bool `json:"online"`
}

type UpdateAvatarInput struct {
	Avatar     string `json:"avatar"`
	AvatarType string `json:"avatarType"`
}

func (deps *AppDeps) members(r *http.Request, users []user.User) []Member {
	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{
			Profile: u.Profile(),
			Online:  deps.Presence.IsOnline(r.Context(), u.ID),
		})
	}
	return members
}

// HandleListUsers lists every user except the caller.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, deps.members(r, deps.Users.Search(r.Context(), "", me.ID)))
	}
}

// HandleSearchUsers finds users by nickname fragment (?q=).
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		query := r.URL.Query().Get("q")
		resp.RespondSuccess(w, r, deps.members(r, deps.Users.Search(r.Context(), query, me.ID)))
	}
}

// HandleGetUser returns a profile with presence and the user's posts.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := deps.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		posts := deps.Feed.ByAuthor(r.Context(), u.ID)
		likes := 0
		for _, p := range posts {
			likes += len(p.Likes)
		}

		resp.RespondSuccess(w, r, struct {
			Member
			Posts      []feed.Post `json:"posts"`
			TotalLikes int         `json:"totalLikes"`
		}{
			Member:     deps.members(r, []user.User{*u})[0],
			Posts:      posts,
			TotalLikes: likes,
		})
	}
}

// HandleUpdateAvatar changes the caller's avatar.
func HandleUpdateAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input UpdateAvatarInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		updated, err := deps.Users.UpdateAvatar(r.Context(), me.ID, input.Avatar, input.AvatarType)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, updated.Account())
	}
}
