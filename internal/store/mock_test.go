package store

import (
	"context"

	"presence-service/internal/domain"
)

// MockRoomRepository is a mock implementation of RoomRepository
type MockRoomRepository struct {
	GetPrivateRoomsFunc      func(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, error)
	GetPrivateRoomOfUserFunc func(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error)
	UpdatePrivateRoomFunc    func(ctx context.Context, roomID int64, isLocked bool) (*domain.PrivateRoom, error)
	GetWorkRoomsFunc         func(ctx context.Context, hiveID int64) ([]domain.WorkRoom, error)
	AddWorkRoomFunc          func(ctx context.Context, room *domain.WorkRoom) error
	UpdateWorkRoomFunc       func(ctx context.Context, roomID int64, name string, maxUsers int, isLocked bool) (*domain.WorkRoom, error)
	DeleteWorkRoomFunc       func(ctx context.Context, roomID int64) error
}

func (m *MockRoomRepository) GetPrivateRooms(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, error) {
	if m.GetPrivateRoomsFunc != nil {
		return m.GetPrivateRoomsFunc(ctx, hiveID)
	}
	return nil, nil
}

func (m *MockRoomRepository) GetPrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
	if m.GetPrivateRoomOfUserFunc != nil {
		return m.GetPrivateRoomOfUserFunc(ctx, hiveID, userID)
	}
	return nil, nil
}

func (m *MockRoomRepository) UpdatePrivateRoom(ctx context.Context, roomID int64, isLocked bool) (*domain.PrivateRoom, error) {
	if m.UpdatePrivateRoomFunc != nil {
		return m.UpdatePrivateRoomFunc(ctx, roomID, isLocked)
	}
	return nil, nil
}

func (m *MockRoomRepository) GetWorkRooms(ctx context.Context, hiveID int64) ([]domain.WorkRoom, error) {
	if m.GetWorkRoomsFunc != nil {
		return m.GetWorkRoomsFunc(ctx, hiveID)
	}
	return nil, nil
}

func (m *MockRoomRepository) AddWorkRoom(ctx context.Context, room *domain.WorkRoom) error {
	if m.AddWorkRoomFunc != nil {
		return m.AddWorkRoomFunc(ctx, room)
	}
	return nil
}

func (m *MockRoomRepository) UpdateWorkRoom(ctx context.Context, roomID int64, name string, maxUsers int, isLocked bool) (*domain.WorkRoom, error) {
	if m.UpdateWorkRoomFunc != nil {
		return m.UpdateWorkRoomFunc(ctx, roomID, name, maxUsers, isLocked)
	}
	return nil, nil
}

func (m *MockRoomRepository) DeleteWorkRoom(ctx context.Context, roomID int64) error {
	if m.DeleteWorkRoomFunc != nil {
		return m.DeleteWorkRoomFunc(ctx, roomID)
	}
	return nil
}
