package admission

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"presence-service/internal/domain"
	"presence-service/internal/presence"
	"presence-service/internal/repository"
)

// RoomStore is the persistence the rules write through.
type RoomStore interface {
	PrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error)
	SetPrivateRoomLock(ctx context.Context, roomID int64, locked bool) (*domain.PrivateRoom, error)
	UpdateWorkRoom(ctx context.Context, room domain.WorkRoom) (*domain.WorkRoom, error)
	AddWorkRoom(ctx context.Context, hiveID int64, name string, maxUsers int) (*domain.WorkRoom, error)
	DeleteWorkRoom(ctx context.Context, roomID int64) error
}

// Engine applies the room admission and work room lifecycle rules to a
// hive's state. Every method must be called from inside Hive.Do; the engine
// keeps no state of its own.
//
// Lock toggling, creation and deletion carry no ownership check, and work
// room capacity and lock are not enforced on entry.
type Engine struct {
	store  RoomStore
	logger *zap.Logger
}

// NewEngine creates a new Engine. A nil logger is replaced by a no-op one.
func NewEngine(store RoomStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// Join inserts a presence record for identity located in the user's private
// room. A user already present is left where they are.
func (e *Engine) Join(ctx context.Context, st *presence.State, identity domain.UserIdentity) error {
	userID := identity.ID.Int64()
	if userID == 0 {
		return reject(ReasonUserNotFound, "setHive without a user id")
	}
	if st.Users.Find(userID) != nil {
		return nil
	}

	var location int64
	room, err := e.store.PrivateRoomOfUser(ctx, st.HiveID, userID)
	switch {
	case err == nil:
		location = room.ID
	case errors.Is(err, repository.ErrRoomNotFound):
		e.logger.Warn("User has no private room in hive",
			zap.Int64("hiveId", st.HiveID),
			zap.Int64("userId", userID))
	default:
		e.logger.Warn("Private room lookup failed, joining without a location",
			zap.Int64("hiveId", st.HiveID),
			zap.Int64("userId", userID),
			zap.Error(err))
	}

	st.Users.UpsertOnJoin(domain.User{
		ID:              userID,
		Name:            identity.Name,
		Image:           identity.Image,
		Status:          domain.StatusOnline,
		CurrentLocation: location,
		LocationType:    domain.LocationPrivate,
	})
	return nil
}

// Enter moves a user into a private or work room.
func (e *Engine) Enter(st *presence.State, userID, workspaceID int64, kind domain.LocationType) error {
	user := st.Users.Find(userID)
	if user == nil {
		return reject(ReasonUserNotFound, "user %d", userID)
	}

	switch kind {
	case domain.LocationPrivate:
		room := st.PrivateRoom(workspaceID)
		if room == nil {
			return reject(ReasonRoomNotFound, "private room %d", workspaceID)
		}
		if room.UserID != userID {
			if err := admitGuest(st, room); err != nil {
				return err
			}
		}
	case domain.LocationShared:
		if st.WorkRoom(workspaceID) == nil {
			return reject(ReasonRoomNotFound, "work room %d", workspaceID)
		}
	default:
		return reject(ReasonRoomNotFound, "unknown room kind %q", kind)
	}

	user.CurrentLocation = workspaceID
	user.LocationType = kind
	return nil
}

// admitGuest decides whether a non-owner may enter room.
func admitGuest(st *presence.State, room *domain.PrivateRoom) error {
	if room.IsLocked {
		return reject(ReasonRoomLocked, "private room %d", room.ID)
	}

	owner := st.Users.Find(room.UserID)
	if owner == nil || !owner.At(room.ID, domain.LocationPrivate) {
		return reject(ReasonOwnerAbsent, "owner %d is not in room %d", room.UserID, room.ID)
	}
	if owner.Status == domain.StatusBusy {
		return reject(ReasonOwnerBusy, "owner %d is busy", room.UserID)
	}
	return nil
}

// ToggleLock flips the lock of a work room, or of a private room when no
// work room has that id. The snapshot only changes once the store accepted
// the write.
func (e *Engine) ToggleLock(ctx context.Context, st *presence.State, workspaceID int64) error {
	if room := st.WorkRoom(workspaceID); room != nil {
		want := *room
		want.IsLocked = !room.IsLocked

		updated, err := e.store.UpdateWorkRoom(ctx, want)
		if err != nil {
			return storeFailure(err)
		}
		if updated != nil {
			want.IsLocked = updated.IsLocked
			want.UpdatedAt = updated.UpdatedAt
		}
		*room = want
		return nil
	}

	if room := st.PrivateRoom(workspaceID); room != nil {
		updated, err := e.store.SetPrivateRoomLock(ctx, room.ID, !room.IsLocked)
		if err != nil {
			return storeFailure(err)
		}
		if updated != nil {
			room.IsLocked = updated.IsLocked
			room.UpdatedAt = updated.UpdatedAt
		} else {
			room.IsLocked = !room.IsLocked
		}
		return nil
	}

	return reject(ReasonRoomNotFound, "workspace %d", workspaceID)
}

// Create persists a new work room named DefaultWorkRoomName. An invalid
// capacity never reaches the store.
func (e *Engine) Create(ctx context.Context, st *presence.State, rawCapacity json.RawMessage) (*domain.WorkRoom, error) {
	capacity, err := ParseCapacity(rawCapacity)
	if err != nil {
		return nil, err
	}

	room, err := e.store.AddWorkRoom(ctx, st.HiveID, domain.DefaultWorkRoomName, capacity)
	if err != nil {
		return nil, storeFailure(err)
	}
	st.AddWorkRoom(*room)
	return room, nil
}

type relocation struct {
	user *domain.User
	room int64
}

// Delete removes a work room and sends its occupants back to their private
// rooms. The requester may not delete the room they stand in. Occupants
// without a private room keep pointing at the deleted room.
func (e *Engine) Delete(ctx context.Context, st *presence.State, requesterID, workspaceID int64) error {
	requester := st.Users.Find(requesterID)
	if requester == nil {
		return reject(ReasonUserNotFound, "user %d", requesterID)
	}
	if requester.At(workspaceID, domain.LocationShared) {
		return reject(ReasonInsideRoom, "user %d is inside work room %d", requesterID, workspaceID)
	}
	if st.WorkRoom(workspaceID) == nil {
		return reject(ReasonRoomNotFound, "work room %d", workspaceID)
	}

	var moves []relocation
	for _, occupant := range st.Users.FindAllAt(workspaceID, domain.LocationShared) {
		room, err := e.store.PrivateRoomOfUser(ctx, st.HiveID, occupant.ID)
		if err != nil {
			e.logger.Warn("Occupant has no private room to return to",
				zap.Int64("hiveId", st.HiveID),
				zap.Int64("workRoomId", workspaceID),
				zap.Int64("userId", occupant.ID),
				zap.Error(err))
			continue
		}
		moves = append(moves, relocation{user: occupant, room: room.ID})
	}

	if err := e.store.DeleteWorkRoom(ctx, workspaceID); err != nil {
		return storeFailure(err)
	}

	for _, m := range moves {
		m.user.CurrentLocation = m.room
		m.user.LocationType = domain.LocationPrivate
	}
	st.RemoveWorkRoom(workspaceID)

	e.logger.Info("Work room deleted",
		zap.Int64("hiveId", st.HiveID),
		zap.Int64("workRoomId", workspaceID),
		zap.Int("relocated", len(moves)))
	return nil
}

// SetStatus changes the advertised status of a present user
func (e *Engine) SetStatus(st *presence.State, userID int64, status domain.Status) error {
	if !status.Valid() {
		return reject(ReasonInvalidStatus, "status %q", status)
	}
	user := st.Users.Find(userID)
	if user == nil {
		return reject(ReasonUserNotFound, "user %d", userID)
	}
	user.Status = status
	return nil
}
