package admission

import (
	"context"

	"presence-service/internal/domain"
)

// MockRoomStore is a mock implementation of RoomStore. Calls counts every
// invocation so tests can assert that nothing reached persistence.
type MockRoomStore struct {
	PrivateRoomOfUserFunc  func(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error)
	SetPrivateRoomLockFunc func(ctx context.Context, roomID int64, locked bool) (*domain.PrivateRoom, error)
	UpdateWorkRoomFunc     func(ctx context.Context, room domain.WorkRoom) (*domain.WorkRoom, error)
	AddWorkRoomFunc        func(ctx context.Context, hiveID int64, name string, maxUsers int) (*domain.WorkRoom, error)
	DeleteWorkRoomFunc     func(ctx context.Context, roomID int64) error

	Calls int
}

func (m *MockRoomStore) PrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
	m.Calls++
	if m.PrivateRoomOfUserFunc != nil {
		return m.PrivateRoomOfUserFunc(ctx, hiveID, userID)
	}
	return nil, nil
}

func (m *MockRoomStore) SetPrivateRoomLock(ctx context.Context, roomID int64, locked bool) (*domain.PrivateRoom, error) {
	m.Calls++
	if m.SetPrivateRoomLockFunc != nil {
		return m.SetPrivateRoomLockFunc(ctx, roomID, locked)
	}
	return &domain.PrivateRoom{ID: roomID, IsLocked: locked}, nil
}

func (m *MockRoomStore) UpdateWorkRoom(ctx context.Context, room domain.WorkRoom) (*domain.WorkRoom, error) {
	m.Calls++
	if m.UpdateWorkRoomFunc != nil {
		return m.UpdateWorkRoomFunc(ctx, room)
	}
	return &room, nil
}

func (m *MockRoomStore) AddWorkRoom(ctx context.Context, hiveID int64, name string, maxUsers int) (*domain.WorkRoom, error) {
	m.Calls++
	if m.AddWorkRoomFunc != nil {
		return m.AddWorkRoomFunc(ctx, hiveID, name, maxUsers)
	}
	return &domain.WorkRoom{ID: 1000, HiveID: hiveID, RoomName: name, MaxUsers: maxUsers}, nil
}

func (m *MockRoomStore) DeleteWorkRoom(ctx context.Context, roomID int64) error {
	m.Calls++
	if m.DeleteWorkRoomFunc != nil {
		return m.DeleteWorkRoomFunc(ctx, roomID)
	}
	return nil
}

// privateRoomsFrom answers PrivateRoomOfUser from a fixed room list.
func privateRoomsFrom(rooms []domain.PrivateRoom) func(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
	return func(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
		for i := range rooms {
			if rooms[i].UserID == userID && rooms[i].HiveID == hiveID {
				room := rooms[i]
				return &room, nil
			}
		}
		return nil, errRoomNotFound
	}
}
