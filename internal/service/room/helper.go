package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/room"
)

func (s *service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			s.logger.DebugContext(ctx, "member has no connection", "member_id", memberId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s *service) getRoom(ctx context.Context, roomId string) (Room, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get player: %w", err)
	}

	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get host: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get member ids: %w", err)
	}

	users := make(map[string]Member, len(memberIds))
	for _, memberId := range memberIds {
		member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: memberId,
			RoomId:   roomId,
		})
		if err != nil {
			return Room{}, fmt.Errorf("failed to get member: %w", err)
		}

		users[memberId] = Member{
			Username: member.Username,
			Role:     Role(member.Role),
		}
	}

	return Room{
		VideoId:     player.VideoId,
		IsPlaying:   player.IsPlaying,
		CurrentTime: player.CurrentTime,
		HostId:      hostId,
		Users:       users,
	}, nil
}

// checkPlaybackPermission allows the host and moderators through and
// returns ErrRoomNotFound or ErrPermissionDenied otherwise.
func (s *service) checkPlaybackPermission(ctx context.Context, roomId, senderId string) error {
	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get host: %w", err)
	}

	if senderId == hostId {
		return nil
	}

	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: senderId,
		RoomId:   roomId,
	})
	if err != nil {
		if err == room.ErrMemberNotFound {
			return ErrPermissionDenied
		}
		return fmt.Errorf("failed to get member: %w", err)
	}

	if Role(member.Role) != RoleModerator {
		return ErrPermissionDenied
	}

	return nil
}

// checkIsHost returns ErrRoomNotFound for an unknown room and
// ErrPermissionDenied for any sender other than the current host.
func (s *service) checkIsHost(ctx context.Context, roomId, senderId string) error {
	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		if err == room.ErrRoomNotFound {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get host: %w", err)
	}

	if senderId != hostId {
		return ErrPermissionDenied
	}

	return nil
}

// resetRoles makes newHostId the HOST and every other present member a
// PARTICIPANT, wiping moderator grants.
func (s *service) resetRoles(ctx context.Context, roomId, newHostId string) error {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to get member ids: %w", err)
	}

	for _, memberId := range memberIds {
		role := RoleParticipant
		if memberId == newHostId {
			role = RoleHost
		}

		if err := s.roomRepo.UpdateMemberRole(ctx, &room.UpdateMemberRoleParams{
			MemberId: memberId,
			Role:     string(role),
			RoomId:   roomId,
		}); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}
	}

	return nil
}
