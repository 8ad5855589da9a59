package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/ctxlogger"
)

// serveWS upgrades the request and serves the connection's message loop
// until the peer goes away. A fresh member id is minted per connection;
// the client introduces itself with a join_room message afterwards.
func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	memberId := uuid.NewString()

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("member_id", memberId))
	ctx = context.WithValue(ctx, memberIdCtxKey, memberId)

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: memberId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		conn.Close()
		return
	}
	defer c.writeMus.Delete(conn)
	defer c.disconnect(ctx, memberId)

	c.logger.InfoContext(ctx, "client connected", "remote_addr", r.RemoteAddr)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "reason", err)
	}
}

func (c *controller) disconnect(ctx context.Context, memberId string) {
	disconnectResp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	for _, departed := range disconnectResp.Rooms {
		if departed.IsRoomDeleted || len(departed.Conns) == 0 {
			continue
		}

		if err := c.broadcast(ctx, departed.Conns, &Output{
			Type:    "room_update",
			Payload: departed.Room,
		}); err != nil {
			c.logger.WarnContext(ctx, "failed to broadcast room update", "room_id", departed.RoomId, "error", err)
		}
	}
}
