/*
Package handler provides the HTTP handlers of the JSON API and the sync stream.
*/
package handler

import (
	"net/http"

	"satorugram/internal/app/user"
	"satorugram/internal/pkg/auth/jwt"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/req"
	"satorugram/internal/pkg/resp"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  user.Account `json:"user"`
}

// HandleRegister creates an account and signs it in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input user.RegisterInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		u, err := deps.Users.Register(r.Context(), input)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		respondSession(w, r, deps, u)
	}
}

// HandleNicknameAvailable reports whether ?nickname= is still free, ignoring case.
func HandleNicknameAvailable(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nickname := r.URL.Query().Get("nickname")
		resp.RespondSuccess(w, r, map[string]bool{
			"available": !deps.Users.NicknameExists(r.Context(), nickname),
		})
	}
}

// HandleLogin signs an existing account in.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		u, err := deps.Users.Login(r.Context(), input.Email, input.Password)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := deps.Presence.Heartbeat(r.Context(), u.ID); err != nil {
			logx.Warn("login: heartbeat failed", "user_id", u.ID, "error", err.Error())
		}

		respondSession(w, r, deps, u)
	}
}

// HandleSession returns the account behind the current token, so a client
// can restore its session after a reload.
func HandleSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user":    u.Account(),
			"isAdmin": deps.Admin.IsAdmin(*u),
		})
	}
}

func respondSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, u *user.User) {
	payload := &jwt.Payload{
		UserID:   u.ID,
		Nickname: u.Nickname,
	}

	token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
	if err != nil {
		logx.Error(err, "failed to generate session token", "user_id", u.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, SessionResponse{Token: token, User: u.Account()})
}
