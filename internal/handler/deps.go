package handler

import (
	"chathub/internal/app/chat"
	"chathub/internal/configs"
)

type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
}
