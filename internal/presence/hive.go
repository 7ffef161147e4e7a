package presence

import (
	"sync"
	"time"

	"presence-service/internal/domain"
)

// Conn is a live connection bound to a hive.
type Conn interface {
	// Send queues payload without blocking and reports whether it was accepted.
	Send(payload []byte) bool
	// Close asks the connection to shut down. It must be idempotent.
	Close()
}

// State is everything a hive owns. It is only handed out inside Hive.Do,
// so every read-modify-write on it is serialized.
type State struct {
	HiveID       int64
	Users        *Registry
	PrivateRooms []domain.PrivateRoom
	WorkRooms    []domain.WorkRoom
	RoomsFetched time.Time

	conns     map[Conn]int64
	userConns map[int64]int
}

// NewState returns an empty, unguarded state. Live states belong to a Hive.
func NewState(hiveID int64) *State {
	return &State{
		HiveID:    hiveID,
		Users:     NewRegistry(),
		conns:     make(map[Conn]int64),
		userConns: make(map[int64]int),
	}
}

// Attach binds c to the hive on behalf of userID (0 for an anonymous
// connection). Attaching an already bound connection is a no-op.
func (s *State) Attach(c Conn, userID int64) {
	if _, ok := s.conns[c]; ok {
		return
	}
	s.conns[c] = userID
	if userID != 0 {
		s.userConns[userID]++
	}
}

// Detach unbinds c and reports the user it carried and whether that was the
// user's last connection in this hive.
func (s *State) Detach(c Conn) (userID int64, last bool) {
	userID, ok := s.conns[c]
	if !ok {
		return 0, false
	}
	delete(s.conns, c)
	if userID == 0 {
		return 0, false
	}

	s.userConns[userID]--
	if s.userConns[userID] > 0 {
		return userID, false
	}
	delete(s.userConns, userID)
	return userID, true
}

// ConnCount returns the number of bound connections
func (s *State) ConnCount() int {
	return len(s.conns)
}

// Broadcast queues payload on every bound connection and returns how many
// accepted it. A connection whose buffer is full is told to close; its own
// teardown detaches it.
func (s *State) Broadcast(payload []byte) int {
	delivered := 0
	for c := range s.conns {
		if c.Send(payload) {
			delivered++
			continue
		}
		c.Close()
	}
	return delivered
}

// CloseAll asks every bound connection to close.
func (s *State) CloseAll() {
	for c := range s.conns {
		c.Close()
	}
}

// SetRooms replaces the room snapshot with freshly fetched rooms
func (s *State) SetRooms(privateRooms []domain.PrivateRoom, workRooms []domain.WorkRoom) {
	s.PrivateRooms = privateRooms
	s.WorkRooms = workRooms
	s.RoomsFetched = time.Now()
}

func (s *State) PrivateRoom(roomID int64) *domain.PrivateRoom {
	for i := range s.PrivateRooms {
		if s.PrivateRooms[i].ID == roomID {
			return &s.PrivateRooms[i]
		}
	}
	return nil
}

// PrivateRoomOf returns the lowest-id private room owned by userID.
func (s *State) PrivateRoomOf(userID int64) *domain.PrivateRoom {
	var found *domain.PrivateRoom
	for i := range s.PrivateRooms {
		room := &s.PrivateRooms[i]
		if room.UserID == userID && (found == nil || room.ID < found.ID) {
			found = room
		}
	}
	return found
}

// WorkRoom returns the live snapshot entry for roomID, or nil
func (s *State) WorkRoom(roomID int64) *domain.WorkRoom {
	for i := range s.WorkRooms {
		if s.WorkRooms[i].ID == roomID {
			return &s.WorkRooms[i]
		}
	}
	return nil
}

func (s *State) AddWorkRoom(room domain.WorkRoom) {
	s.WorkRooms = append(s.WorkRooms, room)
}

func (s *State) RemoveWorkRoom(roomID int64) {
	for i := range s.WorkRooms {
		if s.WorkRooms[i].ID == roomID {
			s.WorkRooms = append(s.WorkRooms[:i], s.WorkRooms[i+1:]...)
			return
		}
	}
}

// Snapshot copies the current state into an update message.
func (s *State) Snapshot() domain.UpdateMessage {
	privateRooms := make([]domain.PrivateRoom, len(s.PrivateRooms))
	copy(privateRooms, s.PrivateRooms)
	workRooms := make([]domain.WorkRoom, len(s.WorkRooms))
	copy(workRooms, s.WorkRooms)

	return domain.NewUpdateMessage(s.Users.Users(), privateRooms, workRooms)
}

// Hive serializes all access to one hive's State.
type Hive struct {
	id int64

	mu      sync.Mutex
	state   *State
	retired bool
}

func newHive(id int64) *Hive {
	return &Hive{
		id:    id,
		state: NewState(id),
	}
}

func (h *Hive) ID() int64 {
	return h.id
}

// Do runs fn while holding the hive lock. Store calls and the broadcast that
// follow a mutation belong inside the same fn.
func (h *Hive) Do(fn func(st *State)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.state)
}

// tryDo is Do for hives that may have been swept since they were looked up.
func (h *Hive) tryDo(fn func(st *State)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retired {
		return false
	}
	fn(h.state)
	return true
}
