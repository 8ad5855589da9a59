package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/room"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrMemberNotFound   = errors.New("member not found")
	ErrRoomNotFound     = errors.New("room not found")
)

// defaultVideoId is played in every freshly created room.
const defaultVideoId = "dQw4w9WgXcQ"

type iRoomRepo interface {
	// room / player
	RoomExists(ctx context.Context, roomId string) (bool, error)
	SetPlayer(context.Context, *room.SetPlayerParams) error
	GetPlayer(ctx context.Context, roomId string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	UpdatePlayerCurrentTime(ctx context.Context, roomId string, currentTime float64) error
	UpdatePlayerVideo(context.Context, *room.UpdatePlayerVideoParams) error
	SetHost(ctx context.Context, roomId, memberId string) error
	GetHost(ctx context.Context, roomId string) (string, error)
	DeleteRoom(ctx context.Context, roomId string) error
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	UpdateMemberRole(context.Context, *room.UpdateMemberRoleParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, memberId string) error
	AddRoomId(memberId, roomId string) error
	GetRoomIds(memberId string) ([]string, error)
	GetConn(memberId string) (*websocket.Conn, error)
	GetMemberId(conn *websocket.Conn) (string, error)
	RemoveByMemberId(memberId string) error
	RemoveByConn(conn *websocket.Conn) error
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	logger   *slog.Logger
	locks    roomLocks
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		logger:   logger,
		locks:    newRoomLocks(),
	}
}
