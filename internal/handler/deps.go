package handler

import (
	"chatgrid/internal/app/chat"
	"chatgrid/internal/app/message"
	"chatgrid/internal/app/room"
	"chatgrid/internal/app/storage"
	"chatgrid/internal/configs"
)

// AppDeps bundles everything the handlers need.
type AppDeps struct {
	Config   *configs.AppConfig
	Chat     *chat.Service
	Rooms    *room.Store
	Messages *message.Store
	Storage  storage.Service
}
