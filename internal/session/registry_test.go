package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct{ songs []string }

func (s stubCatalog) Songs() []string { return s.songs }

type stubNames map[string]string

func (s stubNames) Username(connID string) string {
	if connID == "" {
		return ""
	}
	if name, ok := s[connID]; ok {
		return name
	}
	return "anon"
}

func newTestRegistry() *Registry {
	return NewRegistry(
		stubCatalog{songs: []string{"a.mp3", "b.mp3"}},
		stubNames{"c1": "alice", "c2": "bob", "c3": "carol"},
	)
}

func TestCreateRoom(t *testing.T) {
	g := newTestRegistry()

	view, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "party", view.Room)
	assert.True(t, view.IsHost)
	assert.False(t, view.Locked)
	assert.Equal(t, "alice", view.Host)
	assert.Equal(t, []string{"alice"}, view.Users)
	assert.Equal(t, StateStopped, view.State)

	_, err = g.CreateRoom("party", "c2", "")
	assert.ErrorIs(t, err, ErrRoomExists)

	_, err = g.CreateRoom("", "c2", "")
	assert.ErrorIs(t, err, ErrEmptyRoomName)

	locked, err := g.CreateRoom("vault", "c2", "secret")
	require.NoError(t, err)
	assert.True(t, locked.Locked)
}

func TestJoinRoom(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)

	_, err = g.JoinRoom("nowhere", "c2", "")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	view, err := g.JoinRoom("party", "c2", "")
	require.NoError(t, err)
	assert.False(t, view.IsHost, "host stays with the creator")
	assert.Equal(t, "alice", view.Host)
	assert.Equal(t, []string{"alice", "bob"}, view.Users)

	// joining twice does not duplicate membership
	view, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, view.Users)
}

func TestJoinRoom_PasswordRoundTrip(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("vault", "c1", "abc")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"empty password", "", ErrWrongPassword},
		{"prefix of password", "ab", ErrWrongPassword},
		{"wrong case", "ABC", ErrWrongPassword},
		{"exact match", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.JoinRoom("vault", "c2", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLeaveRoom_HostReassignment(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c3", "")
	require.NoError(t, err)

	// host leaves; the earliest remaining joiner takes over
	res := g.LeaveRoom("party", "c1")
	assert.True(t, res.Left)
	assert.False(t, res.Deleted)
	assert.True(t, res.HostChanged)
	assert.Equal(t, "c2", res.NewHostID)
	assert.Equal(t, "bob", res.NewHostName)
	assert.Equal(t, 2, res.MemberCount)

	// non-host leave does not move the host
	res = g.LeaveRoom("party", "c3")
	assert.True(t, res.Left)
	assert.False(t, res.HostChanged)

	view, err := g.RoomState("party", "c2")
	require.NoError(t, err)
	assert.True(t, view.IsHost)
}

func TestLeaveRoom_DeletesEmptyRoom(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)

	res := g.LeaveRoom("party", "c1")
	assert.True(t, res.Deleted)

	_, err = g.RoomState("party", "c1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, g.ListActiveRoomSummaries())
}

func TestLeaveRoom_Idempotent(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	res := g.LeaveRoom("party", "c2")
	assert.True(t, res.Left)

	// second leave is a no-op and must not touch the remaining member
	res = g.LeaveRoom("party", "c2")
	assert.False(t, res.Left)
	assert.False(t, res.Deleted)

	res = g.LeaveRoom("nowhere", "c2")
	assert.False(t, res.Left)

	view, err := g.RoomState("party", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, view.Users)
}

// Lifecycle of the README scenario: A creates, B joins, both leave.
func TestRoomLifecycleScenario(t *testing.T) {
	g := newTestRegistry()

	view, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	require.True(t, view.IsHost)

	view, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)
	require.Len(t, view.Users, 2)
	require.Equal(t, "alice", view.Host)

	res := g.LeaveRoom("party", "c1")
	require.True(t, res.HostChanged)
	require.Equal(t, "c2", res.NewHostID)

	res = g.LeaveRoom("party", "c2")
	require.True(t, res.Deleted)

	_, err = g.RoomState("party", "c2")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRemoveConnectionEverywhere(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("one", "c1", "")
	require.NoError(t, err)
	_, err = g.CreateRoom("two", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("one", "c2", "")
	require.NoError(t, err)

	results := g.RemoveConnectionEverywhere("c1")
	require.Len(t, results, 2)
	assert.Equal(t, "one", results[0].Room)
	assert.True(t, results[0].HostChanged)
	assert.Equal(t, "c2", results[0].NewHostID)
	assert.Equal(t, "two", results[1].Room)
	assert.True(t, results[1].Deleted)

	// cleanup is idempotent
	assert.Empty(t, g.RemoveConnectionEverywhere("c1"))

	summaries := g.ListActiveRoomSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, "one", summaries[0].Room)
	assert.Equal(t, "bob", summaries[0].Host)
}

func TestListActiveRoomSummaries(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("beta", "c1", "")
	require.NoError(t, err)
	_, err = g.CreateRoom("alpha", "c2", "hunter2")
	require.NoError(t, err)

	summaries := g.ListActiveRoomSummaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].Room, "sorted by name")
	assert.True(t, summaries[0].Locked)
	assert.Equal(t, "bob", summaries[0].Host)
	assert.Equal(t, 1, summaries[0].UserCount)
	assert.Equal(t, "beta", summaries[1].Room)
	assert.False(t, summaries[1].Locked)
}

func TestApplyControl_Authorization(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	_, err = g.ApplyControl("nowhere", "c1", ActionPlay, "", 0)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	before, err := g.RoomState("party", "c2")
	require.NoError(t, err)

	// non-host control is rejected and leaves state untouched
	_, err = g.ApplyControl("party", "c2", ActionPlay, "a.mp3", 10)
	assert.ErrorIs(t, err, ErrNotHost)

	after, err := g.RoomState("party", "c2")
	require.NoError(t, err)
	assert.Equal(t, before.Song, after.Song)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Position, after.Position)
}

func TestApplyControl_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		song     string
		position float64
		wantSong string
		wantSt   State
		wantPos  float64
		wantErr  error
	}{
		{"load known song", ActionLoad, "a.mp3", 5, "a.mp3", StateStopped, 5, nil},
		{"load unknown song", ActionLoad, "missing.mp3", 0, "", "", 0, ErrUnknownSong},
		{"load without song", ActionLoad, "", 0, "", "", 0, ErrUnknownSong},
		{"play with song", ActionPlay, "b.mp3", 2.5, "b.mp3", StatePlaying, 2.5, nil},
		{"play keeps current song", ActionPlay, "", 1, "", StatePlaying, 1, nil},
		{"play ignores unknown song", ActionPlay, "missing.mp3", 1, "", StatePlaying, 1, nil},
		{"pause", ActionPause, "", 7, "", StatePaused, 7, nil},
		{"seek", ActionSeek, "", 42, "", StateStopped, 42, nil},
		{"stop zeroes position", ActionStop, "", 99, "", StateStopped, 0, nil},
		{"negative time clamps", ActionSeek, "", -3, "", StateStopped, 0, nil},
		{"unknown action", "rewind", "", 0, "", "", 0, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestRegistry()
			_, err := g.CreateRoom("party", "c1", "")
			require.NoError(t, err)

			res, err := g.ApplyControl("party", "c1", tt.action, tt.song, tt.position)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				view, verr := g.RoomState("party", "c1")
				require.NoError(t, verr)
				assert.Equal(t, StateStopped, view.State, "rejected command must not change state")
				assert.Empty(t, view.Song)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSong, res.Song)
			assert.Equal(t, tt.wantSt, res.State)
			assert.Equal(t, tt.wantPos, res.Position)
			assert.False(t, res.UpdatedAt.IsZero())
		})
	}
}

func TestApplyControl_PlayAfterLoadKeepsSong(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)

	_, err = g.ApplyControl("party", "c1", ActionLoad, "a.mp3", 0)
	require.NoError(t, err)

	res, err := g.ApplyControl("party", "c1", ActionPlay, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "a.mp3", res.Song)
	assert.Equal(t, StatePlaying, res.State)

	res, err = g.ApplyControl("party", "c1", ActionStop, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "a.mp3", res.Song, "stop keeps the loaded song")
	assert.Equal(t, float64(0), res.Position)
}

func TestRequestHost(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	_, err = g.RequestHost("nowhere", "c2")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = g.RequestHost("party", "c3")
	assert.ErrorIs(t, err, ErrNotMember)

	// requester is already host: granted right away, nothing pending
	tr, err := g.RequestHost("party", "c1")
	require.NoError(t, err)
	assert.True(t, tr.Granted)
	assert.Equal(t, "c1", tr.HostID)

	// non-host request goes pending, addressed to the current host
	tr, err = g.RequestHost("party", "c2")
	require.NoError(t, err)
	assert.True(t, tr.Pending)
	assert.False(t, tr.Granted)
	assert.Equal(t, "c1", tr.CurrentHostID)
}

func TestAcceptTransfer(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	_, err = g.RequestHost("party", "c2")
	require.NoError(t, err)

	// only the current host may approve
	_, err = g.AcceptTransfer("party", "c2", "c2")
	assert.ErrorIs(t, err, ErrNotHost)

	// requester must still be in the room
	_, err = g.AcceptTransfer("party", "c1", "c3")
	assert.ErrorIs(t, err, ErrNotMember)

	tr, err := g.AcceptTransfer("party", "c1", "c2")
	require.NoError(t, err)
	assert.True(t, tr.Granted)
	assert.Equal(t, "c2", tr.HostID)
	assert.Equal(t, "bob", tr.HostName)

	view, err := g.RoomState("party", "c2")
	require.NoError(t, err)
	assert.True(t, view.IsHost)

	// control authority moved with the host
	_, err = g.ApplyControl("party", "c1", ActionPlay, "", 0)
	assert.ErrorIs(t, err, ErrNotHost)
	_, err = g.ApplyControl("party", "c2", ActionPlay, "", 0)
	assert.NoError(t, err)
}

func TestRejectTransfer(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	_, err = g.RequestHost("party", "c2")
	require.NoError(t, err)

	err = g.RejectTransfer("party", "c2", "c2")
	assert.ErrorIs(t, err, ErrNotHost)

	err = g.RejectTransfer("party", "c1", "c2")
	require.NoError(t, err)

	// host unchanged after rejection
	view, err := g.RoomState("party", "c1")
	require.NoError(t, err)
	assert.True(t, view.IsHost)
}

func TestMembersAndStats(t *testing.T) {
	g := newTestRegistry()
	_, err := g.CreateRoom("party", "c1", "")
	require.NoError(t, err)
	_, err = g.JoinRoom("party", "c2", "")
	require.NoError(t, err)

	members := g.Members("party")
	assert.Equal(t, []string{"c1", "c2"}, members)
	assert.Nil(t, g.Members("nowhere"))

	// mutating the copy must not reach the registry
	members[0] = "zzz"
	assert.Equal(t, []string{"c1", "c2"}, g.Members("party"))

	rooms, count := g.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 2, count)
}
