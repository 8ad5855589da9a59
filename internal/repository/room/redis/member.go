package redis

import (
	"context"
	"fmt"

	"github.com/syncwatch/server/internal/repository/room"
)

func (r repo) getMemberKey(roomId, memberId string) string {
	return "room:" + roomId + ":member:" + memberId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

// SetMember upserts the member record and places the member into the
// room's join order. Re-setting an existing member overwrites the record
// without changing its position.
func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	member := room.Member{
		Username: params.Username,
		Role:     params.Role,
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getMemberKey(params.RoomId, params.MemberId), member)
	r.addToJoinOrder(ctx, pipe, r.getMemberListKey(params.RoomId), params.MemberId)

	return r.executePipe(ctx, pipe)
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	cmd := r.rc.HGetAll(ctx, r.getMemberKey(params.RoomId, params.MemberId))
	res, err := cmd.Result()
	if err != nil {
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	if len(res) == 0 {
		return room.Member{}, room.ErrMemberNotFound
	}

	var member room.Member
	if err := cmd.Scan(&member); err != nil {
		return room.Member{}, fmt.Errorf("failed to scan member: %w", err)
	}

	return member, nil
}

// GetMemberIds returns the room's member ids in join order.
func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	return memberIds, nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	res, err := r.rc.ZRem(ctx, r.getMemberListKey(params.RoomId), params.MemberId).Result()
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if res == 0 {
		return room.ErrMemberNotFound
	}

	return r.rc.Del(ctx, r.getMemberKey(params.RoomId, params.MemberId)).Err()
}

func (r repo) UpdateMemberRole(ctx context.Context, params *room.UpdateMemberRoleParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	memberKey := r.getMemberKey(params.RoomId, params.MemberId)

	cmd := r.rc.Exists(ctx, memberKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrMemberNotFound
	}

	return r.rc.HSet(ctx, memberKey, "role", params.Role).Err()
}
