package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"presence-service/internal/domain"
	"presence-service/internal/metrics"
	"presence-service/internal/repository"
)

const DefaultTimeout = 5 * time.Second

// Adapter is the room store used by the presence engine. Every call runs
// under its own deadline so a stalled database cannot hold a hive lock
// forever; failures are logged and counted, and the caller decides whether
// to keep its last snapshot.
type Adapter struct {
	repo    repository.RoomRepository
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAdapter creates an Adapter. A non-positive timeout falls back to DefaultTimeout.
func NewAdapter(repo repository.RoomRepository, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		repo:    repo,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

func (a *Adapter) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	a.metrics.RecordStoreCall(operation, time.Since(start), err)

	if err != nil {
		a.logger.Warn("Room store call failed",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// FetchRooms loads the current private and work rooms of a hive. It never
// caches; each broadcast cycle reads fresh state.
func (a *Adapter) FetchRooms(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, []domain.WorkRoom, error) {
	var (
		privateRooms []domain.PrivateRoom
		workRooms    []domain.WorkRoom
	)
	err := a.call(ctx, "fetch_rooms", func(ctx context.Context) error {
		var err error
		if privateRooms, err = a.repo.GetPrivateRooms(ctx, hiveID); err != nil {
			return err
		}
		workRooms, err = a.repo.GetWorkRooms(ctx, hiveID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return privateRooms, workRooms, nil
}

// PrivateRoomOfUser looks up the private room a user returns to
func (a *Adapter) PrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
	var room *domain.PrivateRoom
	err := a.call(ctx, "private_room_of_user", func(ctx context.Context) error {
		var err error
		room, err = a.repo.GetPrivateRoomOfUser(ctx, hiveID, userID)
		return err
	})
	return room, err
}

// SetPrivateRoomLock persists the lock flag of a private room
func (a *Adapter) SetPrivateRoomLock(ctx context.Context, roomID int64, locked bool) (*domain.PrivateRoom, error) {
	var room *domain.PrivateRoom
	err := a.call(ctx, "update_private_room", func(ctx context.Context) error {
		var err error
		room, err = a.repo.UpdatePrivateRoom(ctx, roomID, locked)
		return err
	})
	return room, err
}

// UpdateWorkRoom persists name, capacity and lock of room as given.
func (a *Adapter) UpdateWorkRoom(ctx context.Context, room domain.WorkRoom) (*domain.WorkRoom, error) {
	var updated *domain.WorkRoom
	err := a.call(ctx, "update_work_room", func(ctx context.Context) error {
		var err error
		updated, err = a.repo.UpdateWorkRoom(ctx, room.ID, room.RoomName, room.MaxUsers, room.IsLocked)
		return err
	})
	return updated, err
}

// AddWorkRoom persists a new work room and returns it with its id
func (a *Adapter) AddWorkRoom(ctx context.Context, hiveID int64, name string, maxUsers int) (*domain.WorkRoom, error) {
	room := &domain.WorkRoom{
		HiveID:   hiveID,
		RoomName: name,
		MaxUsers: maxUsers,
	}
	err := a.call(ctx, "add_work_room", func(ctx context.Context) error {
		return a.repo.AddWorkRoom(ctx, room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteWorkRoom removes a work room from the store
func (a *Adapter) DeleteWorkRoom(ctx context.Context, roomID int64) error {
	return a.call(ctx, "delete_work_room", func(ctx context.Context) error {
		return a.repo.DeleteWorkRoom(ctx, roomID)
	})
}
