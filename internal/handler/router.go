/*
Package handler provides the HTTP handlers and routing setup for the
ChatGrid server.

This file defines the main Router, applying middleware like logging, CORS
and IP-based rate limiting before delegating requests to the API and
WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"chatgrid/internal/pkg/auth/jwt"
	"chatgrid/internal/pkg/limiter"
	"chatgrid/internal/pkg/logx"
	"chatgrid/internal/pkg/resp"
)

const (
	CreateRate   = 0.05
	CreateBurst  = 2
	ConnectRate  = 0.2
	ConnectBurst = 5
	UploadRate   = 0.5
	UploadBurst  = 3
)

// Router sets up the main HTTP routing table for the application. It
// initializes the IP rate limiters, configures CORS, and applies global and
// per-route middleware.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	uploadLimiter := limiter.NewIPRateLimiter(rate.Limit(UploadRate), UploadBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
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
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
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
		data := map[string]string{
			"status":  "ok",
			"service": "ChatGrid Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.Get("/{kind}", HandleListRooms(deps))
			rooms.Get("/{kind}/{name}/members", HandleRoomMembers(deps))
			rooms.Get("/{kind}/{name}/messages", HandleMessageHistory(deps))

			rooms.With(createLimiter.Middleware).Post("/group", HandleCreateGroup(deps))
			rooms.Put("/group/{name}", HandleUpdateGroup(deps))
			rooms.Delete("/group/{name}", HandleDeleteGroup(deps))
			rooms.Post("/group/{name}/leave", HandleLeaveGroup(deps))

			rooms.With(createLimiter.Middleware).Post("/private", HandleStartPrivate(deps))
		})

		api.Route("/file", func(file chi.Router) {
			file.Use(uploadLimiter.Middleware)
			file.Post("/presign-upload", HandlePresignUpload(deps))
			file.Post("/register", HandleRegisterUpload(deps))
			file.Post("/upload", HandleDirectUpload(deps))
			file.Get("/presign-download", HandlePresignDownload(deps))
		})
	})

	r.Get("/ws/{kind}/{name}", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
