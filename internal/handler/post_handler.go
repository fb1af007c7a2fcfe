package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"satorugram/internal/pkg/req"
	"satorugram/internal/pkg/resp"
)

type CreatePostInput struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

// HandleListPosts returns the wall, newest first.
func HandleListPosts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Feed.List(r.Context()))
	}
}

func HandleCreatePost(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input CreatePostInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		post, err := deps.Feed.Create(r.Context(), *me, input.Text, input.ImageURL)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, post)
	}
}

// HandleToggleLike likes the post, or unlikes it when the caller already does.
func HandleToggleLike(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		post, err := deps.Feed.ToggleLike(r.Context(), chi.URLParam(r, "id"), me.ID)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, post)
	}
}

func HandleDeletePost(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := deps.Feed.Delete(r.Context(), chi.URLParam(r, "id"), me.ID); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
