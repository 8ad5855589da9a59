package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     *websocket.Conn
	MemberId string
}

func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect member", "error", err)
		return err
	}

	return nil
}

type JoinRoomParams struct {
	RoomId   string
	Username string
	SenderId string
}

type JoinRoomResponse struct {
	// Player goes to the joining connection only (sync_state); Room goes
	// to every member including the joiner (room_update).
	Player Player
	Room   Room
	Conns  []*websocket.Conn
}

// JoinRoom creates the room on first use, with the joining member as its
// host. Any later joiner enters as a participant; re-joining overwrites
// the member record in place.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
			VideoId:     defaultVideoId,
			IsPlaying:   false,
			CurrentTime: 0,
			RoomId:      params.RoomId,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set player: %w", err)
		}

		if err := s.roomRepo.SetHost(ctx, params.RoomId, params.SenderId); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set host: %w", err)
		}
	}

	hostId, err := s.roomRepo.GetHost(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get host: %w", err)
	}

	role := RoleParticipant
	if params.SenderId == hostId {
		role = RoleHost
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: params.SenderId,
		Username: params.Username,
		Role:     string(role),
		RoomId:   params.RoomId,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to set member: %w", err)
	}

	if err := s.connRepo.AddRoomId(params.SenderId, params.RoomId); err != nil {
		s.logger.InfoContext(ctx, "failed to bind room to connection", "error", err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get player: %w", err)
	}

	roomState, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return JoinRoomResponse{
		Player: Player{
			VideoId:     player.VideoId,
			CurrentTime: player.CurrentTime,
			IsPlaying:   player.IsPlaying,
		},
		Room:  roomState,
		Conns: conns,
	}, nil
}
