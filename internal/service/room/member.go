package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/room"
)

type RemoveMemberParams struct {
	RoomId          string
	SenderId        string
	RemovedMemberId string
}

type RemoveMemberResponse struct {
	// RemovedConn is nil when the removed member has no live connection.
	RemovedConn *websocket.Conn
	Room        Room
	Conns       []*websocket.Conn
}

// RemoveMember ejects a member on behalf of the host. The host cannot
// remove itself; transferring first with MakeHost is the supported way to
// step down.
func (s *service) RemoveMember(ctx context.Context, params *RemoveMemberParams) (RemoveMemberResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkIsHost(ctx, params.RoomId, params.SenderId); err != nil {
		return RemoveMemberResponse{}, err
	}

	if params.RemovedMemberId == params.SenderId {
		return RemoveMemberResponse{}, ErrPermissionDenied
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: params.RemovedMemberId,
		RoomId:   params.RoomId,
	}); err != nil && err != room.ErrMemberNotFound {
		return RemoveMemberResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	removedConn, err := s.connRepo.GetConn(params.RemovedMemberId)
	if err != nil {
		s.logger.DebugContext(ctx, "removed member has no connection", "member_id", params.RemovedMemberId)
	}

	roomState, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return RemoveMemberResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return RemoveMemberResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return RemoveMemberResponse{
		RemovedConn: removedConn,
		Room:        roomState,
		Conns:       conns,
	}, nil
}

type MakeHostParams struct {
	RoomId    string
	SenderId  string
	NewHostId string
}

type MakeHostResponse struct {
	Room  Room
	Conns []*websocket.Conn
}

// MakeHost transfers host authority and re-derives every present member's
// role from scratch: the new host becomes HOST, everyone else a
// PARTICIPANT. Moderator grants do not survive the transfer.
func (s *service) MakeHost(ctx context.Context, params *MakeHostParams) (MakeHostResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkIsHost(ctx, params.RoomId, params.SenderId); err != nil {
		return MakeHostResponse{}, err
	}

	if err := s.roomRepo.SetHost(ctx, params.RoomId, params.NewHostId); err != nil {
		return MakeHostResponse{}, fmt.Errorf("failed to set host: %w", err)
	}

	if err := s.resetRoles(ctx, params.RoomId, params.NewHostId); err != nil {
		return MakeHostResponse{}, err
	}

	roomState, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return MakeHostResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return MakeHostResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return MakeHostResponse{
		Room:  roomState,
		Conns: conns,
	}, nil
}

type MakeModeratorParams struct {
	RoomId     string
	SenderId   string
	PromotedId string
}

type MakeModeratorResponse struct {
	Room  Room
	Conns []*websocket.Conn
}

func (s *service) MakeModerator(ctx context.Context, params *MakeModeratorParams) (MakeModeratorResponse, error) {
	lock := s.locks.lock(params.RoomId)
	defer lock.Unlock()

	if err := s.checkIsHost(ctx, params.RoomId, params.SenderId); err != nil {
		return MakeModeratorResponse{}, err
	}

	if err := s.roomRepo.UpdateMemberRole(ctx, &room.UpdateMemberRoleParams{
		MemberId: params.PromotedId,
		Role:     string(RoleModerator),
		RoomId:   params.RoomId,
	}); err != nil {
		if err == room.ErrMemberNotFound {
			return MakeModeratorResponse{}, ErrMemberNotFound
		}
		return MakeModeratorResponse{}, fmt.Errorf("failed to update member role: %w", err)
	}

	roomState, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return MakeModeratorResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return MakeModeratorResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return MakeModeratorResponse{
		Room:  roomState,
		Conns: conns,
	}, nil
}

type DisconnectMemberParams struct {
	MemberId string
}

// DepartedRoom is the outcome of leaving one room on disconnect. Room and
// Conns are zero when the room was deleted.
type DepartedRoom struct {
	RoomId        string
	IsRoomDeleted bool
	Room          Room
	Conns         []*websocket.Conn
}

type DisconnectMemberResponse struct {
	Rooms []DepartedRoom
}

// DisconnectMember removes the member of a closed connection from every
// room it joined over that connection. Each room dies with its last
// member; if the host departs, the member who joined earliest among the
// remaining ones inherits the room and every other member is reset to
// PARTICIPANT.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	roomIds, roomErr := s.connRepo.GetRoomIds(params.MemberId)

	if err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		s.logger.DebugContext(ctx, "connection already removed", "member_id", params.MemberId)
	}

	// connection never joined a room
	if roomErr != nil {
		return DisconnectMemberResponse{}, nil
	}

	resp := DisconnectMemberResponse{}
	for _, roomId := range roomIds {
		departed, left, err := s.leaveRoom(ctx, roomId, params.MemberId)
		if err != nil {
			return DisconnectMemberResponse{}, err
		}
		if left {
			resp.Rooms = append(resp.Rooms, departed)
		}
	}

	return resp, nil
}

// leaveRoom removes the member from one room. The second return is false
// when the member was already gone, after an ejection by the host.
func (s *service) leaveRoom(ctx context.Context, roomId, memberId string) (DepartedRoom, bool, error) {
	lock := s.locks.lock(roomId)
	defer lock.Unlock()

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: memberId,
		RoomId:   roomId,
	}); err != nil {
		if err == room.ErrMemberNotFound {
			return DepartedRoom{}, false, nil
		}
		return DepartedRoom{}, false, fmt.Errorf("failed to remove member: %w", err)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return DepartedRoom{}, false, fmt.Errorf("failed to get member ids: %w", err)
	}

	if len(memberIds) == 0 {
		if err := s.roomRepo.DeleteRoom(ctx, roomId); err != nil {
			return DepartedRoom{}, false, fmt.Errorf("failed to delete room: %w", err)
		}
		s.locks.drop(roomId)

		return DepartedRoom{RoomId: roomId, IsRoomDeleted: true}, true, nil
	}

	hostId, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil {
		return DepartedRoom{}, false, fmt.Errorf("failed to get host: %w", err)
	}

	if hostId == memberId {
		newHostId := memberIds[0]
		if err := s.roomRepo.SetHost(ctx, roomId, newHostId); err != nil {
			return DepartedRoom{}, false, fmt.Errorf("failed to set host: %w", err)
		}

		if err := s.resetRoles(ctx, roomId, newHostId); err != nil {
			return DepartedRoom{}, false, err
		}
	}

	roomState, err := s.getRoom(ctx, roomId)
	if err != nil {
		return DepartedRoom{}, false, fmt.Errorf("failed to get room: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return DepartedRoom{}, false, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return DepartedRoom{
		RoomId: roomId,
		Room:   roomState,
		Conns:  conns,
	}, true, nil
}
