package handler

import (
	"net/http"

	"satorugram/internal/app/admin"
	"satorugram/internal/app/chat"
	"satorugram/internal/app/dm"
	"satorugram/internal/app/fanout"
	"satorugram/internal/app/feed"
	"satorugram/internal/app/presence"
	"satorugram/internal/app/stream"
	"satorugram/internal/app/user"
	"satorugram/internal/configs"
	"satorugram/internal/pkg/auth/jwt"
	"satorugram/internal/pkg/errs"
)

type AppDeps struct {
	Config   *configs.AppConfig
	Bus      *fanout.Bus
	Users    *user.Service
	Chat     *chat.Service
	DM       *dm.Service
	Feed     *feed.Service
	Presence *presence.Tracker
	Admin    *admin.Service
	Hub      *stream.Hub
}

// currentUser loads the record of the signed-in user. A session whose user
// no longer exists is reported as ErrSessionUserMissing.
func (deps *AppDeps) currentUser(r *http.Request) (*user.User, error) {
	identity := jwt.GetPayloadFromContext(r)
	if identity == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	u, err := deps.Users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errs.Is(err, errs.ErrUserNotFound) {
			return nil, errs.NewError(errs.ErrSessionUserMissing)
		}
		return nil, err
	}
	return u, nil
}
