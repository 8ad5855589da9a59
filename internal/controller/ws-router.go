package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/pkg/wsrouter"
)

// handle adapts a typed handler to the wsrouter signature.
func handle[T any](fn func(ctx context.Context, conn *websocket.Conn, input T) error) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		return fn(ctx, conn, input)
	}
}

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New(func(ctx context.Context, messageType string, err error) {
		// fail-silent policy: nothing goes back to the sender
		c.logger.DebugContext(ctx, "message dropped", "type", messageType, "reason", err)
	})

	// session
	mux.Handle("join_room", handle(c.handleJoinRoom))

	// playback
	mux.Handle("play", handle(c.handlePlay))
	mux.Handle("pause", handle(c.handlePause))
	mux.Handle("seek", handle(c.handleSeek))
	mux.Handle("change_video", handle(c.handleChangeVideo))

	// roles
	mux.Handle("remove_user", handle(c.handleRemoveUser))
	mux.Handle("make_host", handle(c.handleMakeHost))
	mux.Handle("make_moderator", handle(c.handleMakeModerator))
	mux.Handle("assign_moderator", handle(c.handleMakeModerator))

	// chat
	mux.Handle("chat_message", handle(c.handleChatMessage))

	c.logger.Debug("ws handlers registered", "types", mux.Routes())

	return mux
}
