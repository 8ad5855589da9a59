package room

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncwatch/server/internal/repository/connection/inmemory"
	roomRedis "github.com/syncwatch/server/internal/repository/room/redis"
)

func newTestService(t *testing.T) *service {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	roomRepo := roomRedis.NewRepo(rc, logger)
	connRepo := inmemory.NewRepo(logger)

	return NewService(roomRepo, connRepo, logger)
}

// connectAndJoin simulates a fresh connection joining a room and returns
// its member id.
func connectAndJoin(t *testing.T, s *service, roomId, username string) (string, JoinRoomResponse) {
	t.Helper()
	ctx := context.Background()

	memberId := uuid.NewString()
	err := s.ConnectMember(ctx, &ConnectMemberParams{
		Conn:     &websocket.Conn{},
		MemberId: memberId,
	})
	require.NoError(t, err)

	joinRoomResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   roomId,
		Username: username,
		SenderId: memberId,
	})
	require.NoError(t, err)

	return memberId, joinRoomResp
}

func TestJoinRoomCreatesRoomWithDefaults(t *testing.T) {
	s := newTestService(t)

	aliceId, joinResp := connectAndJoin(t, s, "r1", "Alice")

	assert.Equal(t, defaultVideoId, joinResp.Player.VideoId)
	assert.Equal(t, float64(0), joinResp.Player.CurrentTime)
	assert.False(t, joinResp.Player.IsPlaying)

	assert.Equal(t, aliceId, joinResp.Room.HostId)
	assert.Equal(t, RoleHost, joinResp.Room.Users[aliceId].Role)
	assert.Equal(t, "Alice", joinResp.Room.Users[aliceId].Username)
	assert.Len(t, joinResp.Conns, 1)
}

func TestSecondJoinerIsParticipant(t *testing.T) {
	s := newTestService(t)

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, joinResp := connectAndJoin(t, s, "r1", "Bob")

	assert.Equal(t, aliceId, joinResp.Room.HostId, "host must not change on join")
	assert.Equal(t, RoleParticipant, joinResp.Room.Users[bobId].Role)
	assert.Len(t, joinResp.Room.Users, 2)
	assert.Len(t, joinResp.Conns, 2, "room_update goes to both members")
}

func TestLateJoinerSyncsMidSessionState(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	_, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: aliceId, Time: 42})
	require.NoError(t, err)
	currentTime := 42.0
	_, err = s.Play(ctx, &UpdatePlaybackParams{RoomId: "r1", SenderId: aliceId, CurrentTime: &currentTime})
	require.NoError(t, err)

	_, joinResp := connectAndJoin(t, s, "r1", "Bob")
	assert.Equal(t, 42.0, joinResp.Player.CurrentTime)
	assert.True(t, joinResp.Player.IsPlaying)
}

func TestPlaybackDeniedForParticipant(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _ = connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	_, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: bobId, Time: 42})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.Play(ctx, &UpdatePlaybackParams{RoomId: "r1", SenderId: bobId})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), roomState.CurrentTime, "denied seek must not move the position")
	assert.False(t, roomState.IsPlaying, "denied play must not start playback")
}

func TestPlaybackDeniedForUnknownRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Play(ctx, &UpdatePlaybackParams{RoomId: "nope", SenderId: uuid.NewString()})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestModeratorCanControlPlayback(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	makeModeratorResp, err := s.MakeModerator(ctx, &MakeModeratorParams{
		RoomId:     "r1",
		SenderId:   aliceId,
		PromotedId: bobId,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, makeModeratorResp.Room.Users[bobId].Role)
	assert.Equal(t, RoleHost, makeModeratorResp.Room.Users[aliceId].Role, "grant must not touch other roles")

	currentTime := 10.0
	playResp, err := s.Play(ctx, &UpdatePlaybackParams{
		RoomId:      "r1",
		SenderId:    bobId,
		CurrentTime: &currentTime,
	})
	require.NoError(t, err)
	assert.Len(t, playResp.Conns, 2)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, roomState.IsPlaying)
	assert.Equal(t, 10.0, roomState.CurrentTime)
}

func TestPlayKeepsPositionWhenTimeAbsent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	_, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: aliceId, Time: 42})
	require.NoError(t, err)

	_, err = s.Play(ctx, &UpdatePlaybackParams{RoomId: "r1", SenderId: aliceId})
	require.NoError(t, err)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, roomState.IsPlaying)
	assert.Equal(t, 42.0, roomState.CurrentTime, "absent currentTime keeps the stored position")

	currentTime := 50.0
	_, err = s.Pause(ctx, &UpdatePlaybackParams{RoomId: "r1", SenderId: aliceId, CurrentTime: &currentTime})
	require.NoError(t, err)

	roomState, err = s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, roomState.IsPlaying)
	assert.Equal(t, 50.0, roomState.CurrentTime)
}

func TestSeekToZeroIsHonored(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	_, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: aliceId, Time: 42})
	require.NoError(t, err)

	seekResp, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: aliceId, Time: 0})
	require.NoError(t, err)
	assert.Equal(t, float64(0), seekResp.Time)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), roomState.CurrentTime)
}

func TestChangeVideoResetsPlaybackState(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	currentTime := 10.0
	_, err := s.Play(ctx, &UpdatePlaybackParams{RoomId: "r1", SenderId: aliceId, CurrentTime: &currentTime})
	require.NoError(t, err)

	changeVideoResp, err := s.ChangeVideo(ctx, &ChangeVideoParams{
		RoomId:   "r1",
		SenderId: aliceId,
		VideoId:  "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", changeVideoResp.VideoId)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", roomState.VideoId)
	assert.Equal(t, float64(0), roomState.CurrentTime)
	assert.False(t, roomState.IsPlaying)
}

func TestMakeHostResetsAllRoles(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")
	carolId, _ := connectAndJoin(t, s, "r1", "Carol")

	_, err := s.MakeModerator(ctx, &MakeModeratorParams{RoomId: "r1", SenderId: aliceId, PromotedId: carolId})
	require.NoError(t, err)

	makeHostResp, err := s.MakeHost(ctx, &MakeHostParams{RoomId: "r1", SenderId: aliceId, NewHostId: bobId})
	require.NoError(t, err)

	assert.Equal(t, bobId, makeHostResp.Room.HostId)
	assert.Equal(t, RoleHost, makeHostResp.Room.Users[bobId].Role)
	assert.Equal(t, RoleParticipant, makeHostResp.Room.Users[aliceId].Role)
	assert.Equal(t, RoleParticipant, makeHostResp.Room.Users[carolId].Role, "moderator grant must not survive the transfer")
}

func TestMakeHostDeniedForNonHost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _ = connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	_, err := s.MakeHost(ctx, &MakeHostParams{RoomId: "r1", SenderId: bobId, NewHostId: bobId})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestMakeModeratorRequiresPresence(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	_, err := s.MakeModerator(ctx, &MakeModeratorParams{
		RoomId:     "r1",
		SenderId:   aliceId,
		PromotedId: uuid.NewString(),
	})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRemoveMember(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	removeMemberResp, err := s.RemoveMember(ctx, &RemoveMemberParams{
		RoomId:          "r1",
		SenderId:        aliceId,
		RemovedMemberId: bobId,
	})
	require.NoError(t, err)
	assert.NotNil(t, removeMemberResp.RemovedConn, "ejected member gets a direct notification")
	assert.Len(t, removeMemberResp.Room.Users, 1)
	assert.NotContains(t, removeMemberResp.Room.Users, bobId)
	assert.Len(t, removeMemberResp.Conns, 1)
}

func TestRemoveMemberDeniedForNonHost(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	_, err := s.RemoveMember(ctx, &RemoveMemberParams{
		RoomId:          "r1",
		SenderId:        bobId,
		RemovedMemberId: aliceId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, roomState.Users, 2)
}

func TestHostCannotRemoveItself(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	_, _ = connectAndJoin(t, s, "r1", "Bob")

	_, err := s.RemoveMember(ctx, &RemoveMemberParams{
		RoomId:          "r1",
		SenderId:        aliceId,
		RemovedMemberId: aliceId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, aliceId, roomState.HostId)
	assert.Len(t, roomState.Users, 2)
}

func TestHostDisconnectPromotesEarliestRemaining(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")
	carolId, _ := connectAndJoin(t, s, "r1", "Carol")

	_, err := s.MakeModerator(ctx, &MakeModeratorParams{RoomId: "r1", SenderId: aliceId, PromotedId: carolId})
	require.NoError(t, err)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: aliceId})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 1)

	departed := disconnectResp.Rooms[0]
	assert.False(t, departed.IsRoomDeleted)
	assert.Equal(t, bobId, departed.Room.HostId, "second joiner inherits the room")
	assert.Equal(t, RoleHost, departed.Room.Users[bobId].Role)
	assert.Equal(t, RoleParticipant, departed.Room.Users[carolId].Role, "succession resets moderators")
	assert.Len(t, departed.Conns, 2)
}

func TestParticipantDisconnectKeepsRoles(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")
	carolId, _ := connectAndJoin(t, s, "r1", "Carol")

	_, err := s.MakeModerator(ctx, &MakeModeratorParams{RoomId: "r1", SenderId: aliceId, PromotedId: carolId})
	require.NoError(t, err)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: bobId})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 1)
	assert.Equal(t, aliceId, disconnectResp.Rooms[0].Room.HostId)
	assert.Equal(t, RoleModerator, disconnectResp.Rooms[0].Room.Users[carolId].Role)
}

func TestLastDisconnectDeletesRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")

	_, err := s.Seek(ctx, &SeekParams{RoomId: "r1", SenderId: aliceId, Time: 42})
	require.NoError(t, err)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: aliceId})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 1)
	assert.True(t, disconnectResp.Rooms[0].IsRoomDeleted)
	assert.Equal(t, "r1", disconnectResp.Rooms[0].RoomId)

	// a later join under the same id sees fresh defaults, not stale state
	bobId, joinResp := connectAndJoin(t, s, "r1", "Bob")
	assert.Equal(t, bobId, joinResp.Room.HostId)
	assert.Equal(t, defaultVideoId, joinResp.Player.VideoId)
	assert.Equal(t, float64(0), joinResp.Player.CurrentTime)
}

func TestDisconnectAfterEjectionIsNoop(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	_, err := s.RemoveMember(ctx, &RemoveMemberParams{
		RoomId:          "r1",
		SenderId:        aliceId,
		RemovedMemberId: bobId,
	})
	require.NoError(t, err)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: bobId})
	require.NoError(t, err)
	assert.Empty(t, disconnectResp.Rooms, "nothing to broadcast for an already ejected member")

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, roomState.Users, 1)
}

func TestChatMessageNeedsNoMembership(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _ = connectAndJoin(t, s, "r1", "Alice")
	_, _ = connectAndJoin(t, s, "r1", "Bob")

	chatResp, err := s.ChatMessage(ctx, &ChatMessageParams{
		RoomId:   "r1",
		Username: "Stranger",
		Message:  "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Stranger", chatResp.Username)
	assert.Equal(t, "hi", chatResp.Message)
	assert.Len(t, chatResp.Conns, 2)

	emptyResp, err := s.ChatMessage(ctx, &ChatMessageParams{
		RoomId:   "no-such-room",
		Username: "Stranger",
		Message:  "echo",
	})
	require.NoError(t, err)
	assert.Empty(t, emptyResp.Conns, "unknown room has no recipients")
}

func TestDisconnectLeavesEveryJoinedRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	bobId, _ := connectAndJoin(t, s, "r1", "Bob")

	// alice opens a second room over the same connection
	_, err := s.JoinRoom(ctx, &JoinRoomParams{RoomId: "r2", Username: "Alice", SenderId: aliceId})
	require.NoError(t, err)

	disconnectResp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: aliceId})
	require.NoError(t, err)
	require.Len(t, disconnectResp.Rooms, 2, "both joined rooms must be left")

	byRoom := make(map[string]DepartedRoom, len(disconnectResp.Rooms))
	for _, departed := range disconnectResp.Rooms {
		byRoom[departed.RoomId] = departed
	}

	r1 := byRoom["r1"]
	assert.False(t, r1.IsRoomDeleted)
	assert.NotContains(t, r1.Room.Users, aliceId, "no ghost membership in the first room")
	assert.Equal(t, bobId, r1.Room.HostId, "succession runs in the first room too")
	assert.Equal(t, RoleHost, r1.Room.Users[bobId].Role)

	assert.True(t, byRoom["r2"].IsRoomDeleted, "the solo room dies with its member")

	roomState, err := s.getRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, roomState.Users, 1)
}

func TestRejoinKeepsPosition(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	aliceId, _ := connectAndJoin(t, s, "r1", "Alice")
	_, _ = connectAndJoin(t, s, "r1", "Bob")

	// re-join with a new name overwrites the record in place
	joinRoomResp, err := s.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   "r1",
		Username: "Alice2",
		SenderId: aliceId,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice2", joinRoomResp.Room.Users[aliceId].Username)
	assert.Equal(t, RoleHost, joinRoomResp.Room.Users[aliceId].Role)
	assert.Len(t, joinRoomResp.Room.Users, 2)
}
