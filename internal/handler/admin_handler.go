package handler

import (
	"net/http"

	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/resp"
)

// HandleAdminDashboard returns the dashboard to the administrator only.
func HandleAdminDashboard(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, err := deps.currentUser(r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if !deps.Admin.IsAdmin(*me) {
			logx.Warn("admin: access denied", "user_id", me.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		resp.RespondSuccess(w, r, deps.Admin.Dashboard(r.Context()))
	}
}
