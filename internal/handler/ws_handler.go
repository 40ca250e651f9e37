/*
Package handler provides the HTTP handlers and routing setup for the chat hub server.

This file contains the HandleWebSocket function, responsible for upgrading the HTTP
connection to WebSocket and starting the session lifecycle: the server immediately
requests the client's resume token, then hands control to the session's read loop.
Rate limiting happens in the route middleware before this handler runs.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chathub/internal/app/chat"
	"chathub/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(deps.Hub, conn, deps.Config.HandshakeTimeout)

		go session.WritePump()

		// Handshake opening move: ask the client for its resume token.
		session.SendEvent(chat.Event{Type: chat.TypeRequestToken})

		session.ReadPump()
	}
}
