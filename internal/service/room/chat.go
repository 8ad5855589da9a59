package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

type ChatMessageParams struct {
	RoomId   string
	Username string
	Message  string
}

type ChatMessageResponse struct {
	Username string
	Message  string
	Conns    []*websocket.Conn
}

// ChatMessage relays a message to the room's members with no membership
// or existence check. An unknown room simply has no recipients.
func (s *service) ChatMessage(ctx context.Context, params *ChatMessageParams) (ChatMessageResponse, error) {
	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return ChatMessageResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return ChatMessageResponse{
		Username: params.Username,
		Message:  params.Message,
		Conns:    conns,
	}, nil
}
