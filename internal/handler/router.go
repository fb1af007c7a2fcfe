package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"satorugram/internal/pkg/auth/jwt"
	"satorugram/internal/pkg/limiter"
	"satorugram/internal/pkg/logx"
	"satorugram/internal/pkg/resp"
)

const (
	AuthRate    = 0.2
	AuthBurst   = 5
	StreamRate  = 1
	StreamBurst = 10
)

// Router sets up the routing table of the JSON API and the sync stream.
// The returned stop function releases the rate limiters' sweepers.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	streamLimiter := limiter.NewIPRateLimiter(rate.Limit(StreamRate), StreamBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":  "ok",
			"service": "Satorugram",
			"clients": deps.Hub.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Get("/nickname", HandleNicknameAvailable(deps))
			auth.With(jwt.RequireIdentity).Get("/session", HandleSession(deps))
		})

		api.Group(func(private chi.Router) {
			private.Use(jwt.RequireIdentity)

			private.Route("/users", func(users chi.Router) {
				users.Get("/", HandleListUsers(deps))
				users.Get("/search", HandleSearchUsers(deps))
				users.Post("/me/avatar", HandleUpdateAvatar(deps))
				users.Get("/{id}", HandleGetUser(deps))
			})

			private.Route("/chat", func(chat chi.Router) {
				chat.Get("/messages", HandleListChatMessages(deps))
				chat.Post("/messages", HandleSendChatMessage(deps))
			})

			private.Route("/dm", func(dm chi.Router) {
				dm.Get("/conversations", HandleListConversations(deps))
				dm.Get("/unread", HandleUnreadCount(deps))
				dm.Get("/{partnerID}", HandleGetConversation(deps))
				dm.Post("/{partnerID}", HandleSendDirectMessage(deps))
				dm.Post("/{partnerID}/read", HandleMarkConversationRead(deps))
			})

			private.Route("/posts", func(posts chi.Router) {
				posts.Get("/", HandleListPosts(deps))
				posts.Post("/", HandleCreatePost(deps))
				posts.Post("/{id}/like", HandleToggleLike(deps))
				posts.Delete("/{id}", HandleDeletePost(deps))
			})

			private.Route("/presence", func(presence chi.Router) {
				presence.Post("/heartbeat", HandleHeartbeat(deps))
				presence.Get("/", HandleOnline(deps))
				presence.Get("/{id}", HandleUserPresence(deps))
			})

			private.Get("/admin/stats", HandleAdminDashboard(deps))
		})
	})

	r.With(
		streamLimiter.Middleware,
		jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret),
	).Get("/ws", HandleStream(deps, wsUpgrader))

	stop := func() {
		authLimiter.Stop()
		streamLimiter.Stop()
	}

	return r, stop
}
