/*
Package handler provides the HTTP and WebSocket handlers of the ChatGrid server.

This file contains HandleWebSocket, which rate limits, authenticates and
authorizes a connection request, upgrades it, and hands the socket to a
chat session.
*/
package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"chatgrid/internal/app/chat"
	"chatgrid/internal/app/room"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/auth/jwt"
	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/limiter"
	"chatgrid/internal/pkg/logx"
	"chatgrid/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection
// requests for /ws/{kind}/{name}. Authorization happens before the upgrade so
// a rejected caller gets a proper HTTP error instead of a dropped socket.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		kind, ok := room.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomKindInvalid))
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		// Browsers cannot set headers on WebSocket requests, so the token
		// rides in the query string.
		payload, err := jwt.ParseToken(r.URL.Query().Get("token"), deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket connection rejected: Invalid token.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		viewer := user.User{ID: payload.ID, Username: payload.Username}

		rm, err := deps.Chat.ResolveRoom(r.Context(), kind, name, viewer)
		if err != nil {
			var customErr *errs.CustomError
			if errors.As(err, &customErr) {
				resp.RespondError(w, r, customErr)
			} else {
				logx.Error(err, "Failed to resolve room for WebSocket connection.")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		sess := chat.NewSession(conn, viewer, rm, deps.Chat)
		if err := sess.Run(r.Context()); err != nil {
			logx.Error(err, "Failed to register session", "channel", rm.Channel(), "user_id", viewer.ID)
			return
		}

		logx.Info("WebSocket connection established", "channel", rm.Channel(), "user_id", viewer.ID)
	}
}
