package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/room"
)

type UpdatePlaybackParams struct {
	RoomId   string
	SenderId string
	// CurrentTime is optional: nil keeps the stored position. A present
	// zero is honored.
	CurrentTime *float64
}

type UpdatePlaybackResponse struct {
	Conns []*websocket.Conn
}

func (s *service) Play(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.updatePlayback(ctx, params, true)
}

func (s *service) Pause(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.updatePlayback(ctx, params, false)
}

func (s *service) updatePlayback(ctx context.Context, params *UpdatePlaybackParams, isPlaying bool) (UpdatePlaybackResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkPlaybackPermission(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	currentTime := params.CurrentTime
	if currentTime == nil {
		player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
		if err != nil {
			return UpdatePlaybackResponse{}, fmt.Errorf("failed to get player: %w", err)
		}
		currentTime = &player.CurrentTime
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   isPlaying,
		CurrentTime: *currentTime,
		RoomId:      params.RoomId,
	}); err != nil {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return UpdatePlaybackResponse{Conns: conns}, nil
}

type SeekParams struct {
	RoomId   string
	SenderId string
	Time     float64
}

type SeekResponse struct {
	Time  float64
	Conns []*websocket.Conn
}

// Seek sets the playback position unconditionally; seeking to zero is a
// regular seek, not an absent value.
func (s *service) Seek(ctx context.Context, params *SeekParams) (SeekResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkPlaybackPermission(ctx, params.RoomId, params.SenderId); err != nil {
		return SeekResponse{}, err
	}

	if err := s.roomRepo.UpdatePlayerCurrentTime(ctx, params.RoomId, params.Time); err != nil {
		return SeekResponse{}, fmt.Errorf("failed to update player current time: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SeekResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SeekResponse{
		Time:  params.Time,
		Conns: conns,
	}, nil
}

type ChangeVideoParams struct {
	RoomId   string
	SenderId string
	VideoId  string
}

type ChangeVideoResponse struct {
	VideoId string
	Conns   []*websocket.Conn
}

// ChangeVideo switches media and restarts playback state: position back
// to zero, paused.
func (s *service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkPlaybackPermission(ctx, params.RoomId, params.SenderId); err != nil {
		return ChangeVideoResponse{}, err
	}

	if err := s.roomRepo.UpdatePlayerVideo(ctx, &room.UpdatePlayerVideoParams{
		VideoId: params.VideoId,
		RoomId:  params.RoomId,
	}); err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to update player video: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return ChangeVideoResponse{
		VideoId: params.VideoId,
		Conns:   conns,
	}, nil
}
