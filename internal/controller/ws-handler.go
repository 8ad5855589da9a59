package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/service/room"
)

type JoinRoomInput struct {
	RoomId   string `json:"roomId" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=32"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input JoinRoomInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("validation failed: %v", validationErrors)
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:   input.RoomId,
		Username: input.Username,
		SenderId: memberId,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	// the late joiner resumes from the room's current playback state
	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "sync_state",
		Payload: joinRoomResp.Player,
	}); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}

	if err := c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    "room_update",
		Payload: joinRoomResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room update: %w", err)
	}

	return nil
}

type PlaybackInput struct {
	RoomId      string   `json:"roomId"`
	CurrentTime *float64 `json:"currentTime"`
}

func (c *controller) handlePlay(ctx context.Context, _ *websocket.Conn, input PlaybackInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	playResp, err := c.roomService.Play(ctx, &room.UpdatePlaybackParams{
		RoomId:      input.RoomId,
		SenderId:    memberId,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	if err := c.broadcast(ctx, playResp.Conns, &Output{Type: "play"}); err != nil {
		return fmt.Errorf("failed to broadcast play: %w", err)
	}

	return nil
}

func (c *controller) handlePause(ctx context.Context, _ *websocket.Conn, input PlaybackInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	pauseResp, err := c.roomService.Pause(ctx, &room.UpdatePlaybackParams{
		RoomId:      input.RoomId,
		SenderId:    memberId,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	if err := c.broadcast(ctx, pauseResp.Conns, &Output{Type: "pause"}); err != nil {
		return fmt.Errorf("failed to broadcast pause: %w", err)
	}

	return nil
}

type SeekInput struct {
	RoomId string  `json:"roomId"`
	Time   float64 `json:"time"`
}

func (c *controller) handleSeek(ctx context.Context, _ *websocket.Conn, input SeekInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	seekResp, err := c.roomService.Seek(ctx, &room.SeekParams{
		RoomId:   input.RoomId,
		SenderId: memberId,
		Time:     input.Time,
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	if err := c.broadcast(ctx, seekResp.Conns, &Output{
		Type: "seek",
		Payload: map[string]any{
			"time": seekResp.Time,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast seek: %w", err)
	}

	return nil
}

type ChangeVideoInput struct {
	RoomId  string `json:"roomId"`
	VideoId string `json:"videoId"`
}

func (c *controller) handleChangeVideo(ctx context.Context, _ *websocket.Conn, input ChangeVideoInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	changeVideoResp, err := c.roomService.ChangeVideo(ctx, &room.ChangeVideoParams{
		RoomId:   input.RoomId,
		SenderId: memberId,
		VideoId:  input.VideoId,
	})
	if err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	if err := c.broadcast(ctx, changeVideoResp.Conns, &Output{
		Type: "change_video",
		Payload: map[string]any{
			"videoId": changeVideoResp.VideoId,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast change video: %w", err)
	}

	return nil
}

type RemoveUserInput struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

func (c *controller) handleRemoveUser(ctx context.Context, _ *websocket.Conn, input RemoveUserInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	removeMemberResp, err := c.roomService.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:          input.RoomId,
		SenderId:        memberId,
		RemovedMemberId: input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	// addressed to the ejected connection only
	if removeMemberResp.RemovedConn != nil {
		if err := c.writeToConn(ctx, removeMemberResp.RemovedConn, &Output{
			Type: "removed_by_host",
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to notify removed member", "error", err)
		}
	}

	if err := c.broadcast(ctx, removeMemberResp.Conns, &Output{
		Type:    "room_update",
		Payload: removeMemberResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room update: %w", err)
	}

	return nil
}

type MakeHostInput struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

func (c *controller) handleMakeHost(ctx context.Context, _ *websocket.Conn, input MakeHostInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	makeHostResp, err := c.roomService.MakeHost(ctx, &room.MakeHostParams{
		RoomId:    input.RoomId,
		SenderId:  memberId,
		NewHostId: input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to make host: %w", err)
	}

	if err := c.broadcast(ctx, makeHostResp.Conns, &Output{
		Type:    "room_update",
		Payload: makeHostResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room update: %w", err)
	}

	return nil
}

type MakeModeratorInput struct {
	RoomId string `json:"roomId"`
	UserId string `json:"userId"`
}

func (c *controller) handleMakeModerator(ctx context.Context, _ *websocket.Conn, input MakeModeratorInput) error {
	memberId := c.getMemberIdFromCtx(ctx)

	makeModeratorResp, err := c.roomService.MakeModerator(ctx, &room.MakeModeratorParams{
		RoomId:     input.RoomId,
		SenderId:   memberId,
		PromotedId: input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to make moderator: %w", err)
	}

	if err := c.broadcast(ctx, makeModeratorResp.Conns, &Output{
		Type:    "room_update",
		Payload: makeModeratorResp.Room,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room update: %w", err)
	}

	return nil
}

type ChatMessageInput struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (c *controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, input ChatMessageInput) error {
	chatMessageResp, err := c.roomService.ChatMessage(ctx, &room.ChatMessageParams{
		RoomId:   input.RoomId,
		Username: input.Username,
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to relay chat message: %w", err)
	}

	if err := c.broadcast(ctx, chatMessageResp.Conns, &Output{
		Type: "chat_message",
		Payload: map[string]any{
			"username": chatMessageResp.Username,
			"message":  chatMessageResp.Message,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast chat message: %w", err)
	}

	return nil
}
