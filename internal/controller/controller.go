package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/validator"
	"github.com/syncwatch/server/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	Play(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	Pause(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	Seek(context.Context, *room.SeekParams) (room.SeekResponse, error)
	ChangeVideo(context.Context, *room.ChangeVideoParams) (room.ChangeVideoResponse, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.RemoveMemberResponse, error)
	MakeHost(context.Context, *room.MakeHostParams) (room.MakeHostResponse, error)
	MakeModerator(context.Context, *room.MakeModeratorParams) (room.MakeModeratorResponse, error)
	ChatMessage(context.Context, *room.ChatMessageParams) (room.ChatMessageResponse, error)
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
	// gorilla conns do not allow concurrent writers
	writeMus sync.Map
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return &c
}
