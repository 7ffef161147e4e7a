package presence

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence-service/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	full   bool
	sent   [][]byte
	closed int
}

func (c *fakeConn) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.sent = append(c.sent, payload)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func TestState_AttachDetachCountsConnectionsPerUser(t *testing.T) {
	st := NewState(1)
	a, b, anon := &fakeConn{}, &fakeConn{}, &fakeConn{}

	st.Attach(a, 10)
	st.Attach(b, 10)
	st.Attach(a, 10) // rebinding the same conn is a no-op
	st.Attach(anon, 0)
	assert.Equal(t, 3, st.ConnCount())

	userID, last := st.Detach(a)
	assert.Equal(t, int64(10), userID)
	assert.False(t, last)

	userID, last = st.Detach(b)
	assert.Equal(t, int64(10), userID)
	assert.True(t, last)

	userID, last = st.Detach(anon)
	assert.Zero(t, userID)
	assert.False(t, last)

	userID, last = st.Detach(a)
	assert.Zero(t, userID)
	assert.False(t, last)
	assert.Zero(t, st.ConnCount())
}

func TestState_BroadcastClosesFullConnections(t *testing.T) {
	st := NewState(1)
	ok, full := &fakeConn{}, &fakeConn{full: true}
	st.Attach(ok, 1)
	st.Attach(full, 2)

	delivered := st.Broadcast([]byte("x"))

	assert.Equal(t, 1, delivered)
	assert.Len(t, ok.sent, 1)
	assert.Equal(t, 0, ok.closed)
	assert.Equal(t, 1, full.closed)
}

func TestState_RoomLookups(t *testing.T) {
	st := NewState(1)
	st.SetRooms(
		[]domain.PrivateRoom{
			{ID: 7, UserID: 1},
			{ID: 3, UserID: 1},
			{ID: 4, UserID: 2},
		},
		[]domain.WorkRoom{{ID: 20}, {ID: 21}},
	)

	require.NotNil(t, st.PrivateRoom(4))
	assert.Nil(t, st.PrivateRoom(20))
	assert.Equal(t, int64(3), st.PrivateRoomOf(1).ID, "lowest id wins")
	assert.Nil(t, st.PrivateRoomOf(99))

	require.NotNil(t, st.WorkRoom(21))
	st.RemoveWorkRoom(21)
	assert.Nil(t, st.WorkRoom(21))
	st.AddWorkRoom(domain.WorkRoom{ID: 22})
	assert.NotNil(t, st.WorkRoom(22))
	assert.False(t, st.RoomsFetched.IsZero())
}

func TestState_SnapshotIsDetached(t *testing.T) {
	st := NewState(1)
	st.SetRooms([]domain.PrivateRoom{{ID: 1, IsLocked: true}}, nil)
	st.Users.UpsertOnJoin(domain.User{ID: 5, CurrentLocation: 1, LocationType: domain.LocationPrivate})

	snap := st.Snapshot()
	st.PrivateRooms[0].IsLocked = false

	assert.True(t, snap.PrivateRooms[0].IsLocked)
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"work_rooms":[]`)
	assert.Contains(t, string(data), `"type":"update"`)
}
