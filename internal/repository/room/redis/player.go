package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/syncwatch/server/internal/repository/room"
)

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) getHostKey(roomId string) string {
	return "room:" + roomId + ":host"
}

// RoomExists reports whether a room was created and not yet deleted. The
// player hash is written on creation and removed on deletion, so its
// existence is the room's existence.
func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getPlayerKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	player := room.Player{
		VideoId:     params.VideoId,
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
	}

	return r.rc.HSet(ctx, r.getPlayerKey(params.RoomId), player).Err()
}

func (r repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	cmd := r.rc.HGetAll(ctx, r.getPlayerKey(roomId))
	res, err := cmd.Result()
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if len(res) == 0 {
		return room.Player{}, room.ErrRoomNotFound
	}

	var player room.Player
	if err := cmd.Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to scan player: %w", err)
	}

	return player, nil
}

func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	return r.rc.HSet(ctx, r.getPlayerKey(params.RoomId),
		"is_playing", params.IsPlaying,
		"current_time", params.CurrentTime,
	).Err()
}

func (r repo) UpdatePlayerCurrentTime(ctx context.Context, roomId string, currentTime float64) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "current_time", currentTime)
	return r.rc.HSet(ctx, r.getPlayerKey(roomId), "current_time", currentTime).Err()
}

// UpdatePlayerVideo switches the video and resets playback state.
func (r repo) UpdatePlayerVideo(ctx context.Context, params *room.UpdatePlayerVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	return r.rc.HSet(ctx, r.getPlayerKey(params.RoomId),
		"video_id", params.VideoId,
		"is_playing", false,
		"current_time", float64(0),
	).Err()
}

func (r repo) SetHost(ctx context.Context, roomId, memberId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "member_id", memberId)
	return r.rc.Set(ctx, r.getHostKey(roomId), memberId, 0).Err()
}

func (r repo) GetHost(ctx context.Context, roomId string) (string, error) {
	hostId, err := r.rc.Get(ctx, r.getHostKey(roomId)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", room.ErrRoomNotFound
		}
		return "", fmt.Errorf("failed to get host: %w", err)
	}

	return hostId, nil
}

// DeleteRoom removes every key belonging to the room.
func (r repo) DeleteRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	memberIds, err := r.GetMemberIds(ctx, roomId)
	if err != nil {
		return err
	}

	pipe := r.rc.TxPipeline()
	for _, memberId := range memberIds {
		pipe.Del(ctx, r.getMemberKey(roomId, memberId))
	}
	pipe.Del(ctx, r.getMemberListKey(roomId))
	pipe.Del(ctx, r.getHostKey(roomId))
	pipe.Del(ctx, r.getPlayerKey(roomId))

	return r.executePipe(ctx, pipe)
}
