package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"presence-service/internal/domain"
)

var (
	ErrHiveNotFound    = errors.New("hive not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidWorkRoom = errors.New("work room requires a hive and a name")
)

// RoomRepository is the persistence collaborator for Private and Work Rooms.
type RoomRepository interface {
	GetPrivateRooms(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, error)
	GetPrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error)
	UpdatePrivateRoom(ctx context.Context, roomID int64, isLocked bool) (*domain.PrivateRoom, error)

	GetWorkRooms(ctx context.Context, hiveID int64) ([]domain.WorkRoom, error)
	AddWorkRoom(ctx context.Context, room *domain.WorkRoom) error
	UpdateWorkRoom(ctx context.Context, roomID int64, name string, maxUsers int, isLocked bool) (*domain.WorkRoom, error)
	DeleteWorkRoom(ctx context.Context, roomID int64) error
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository backed by gorm
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// GetPrivateRooms retrieves every private room of a hive.
// It returns ErrHiveNotFound when the hive itself does not exist.
func (r *roomRepository) GetPrivateRooms(ctx context.Context, hiveID int64) ([]domain.PrivateRoom, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Hive{}).Where("id = ?", hiveID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrHiveNotFound
	}

	var rooms []domain.PrivateRoom
	err := r.db.WithContext(ctx).
		Where("id_hive = ?", hiveID).
		Order("id ASC").
		Find(&rooms).Error

	return rooms, err
}

// GetPrivateRoomOfUser returns the lowest-id room when a user has several.
func (r *roomRepository) GetPrivateRoomOfUser(ctx context.Context, hiveID, userID int64) (*domain.PrivateRoom, error) {
	var room domain.PrivateRoom
	err := r.db.WithContext(ctx).
		Where("id_hive = ? AND id_user = ?", hiveID, userID).
		Order("id ASC").
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpdatePrivateRoom sets the lock flag of a private room and returns the stored row
func (r *roomRepository) UpdatePrivateRoom(ctx context.Context, roomID int64, isLocked bool) (*domain.PrivateRoom, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.PrivateRoom{}).
		Where("id = ?", roomID).
		Update("is_locked", isLocked)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRoomNotFound
	}

	var room domain.PrivateRoom
	if err := r.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload private room %d: %w", roomID, err)
	}
	return &room, nil
}

// GetWorkRooms retrieves every work room of a hive ordered by id
func (r *roomRepository) GetWorkRooms(ctx context.Context, hiveID int64) ([]domain.WorkRoom, error) {
	var rooms []domain.WorkRoom
	err := r.db.WithContext(ctx).
		Where("id_hive = ?", hiveID).
		Order("id ASC").
		Find(&rooms).Error

	return rooms, err
}

// AddWorkRoom inserts a work room; hive id and a non-blank name are required
func (r *roomRepository) AddWorkRoom(ctx context.Context, room *domain.WorkRoom) error {
	if room.HiveID == 0 || strings.TrimSpace(room.RoomName) == "" {
		return ErrInvalidWorkRoom
	}
	return r.db.WithContext(ctx).Create(room).Error
}

// UpdateWorkRoom overwrites name, capacity and lock of a work room
func (r *roomRepository) UpdateWorkRoom(ctx context.Context, roomID int64, name string, maxUsers int, isLocked bool) (*domain.WorkRoom, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.WorkRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"room_name": name,
			"max_users": maxUsers,
			"is_locked": isLocked,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRoomNotFound
	}

	var room domain.WorkRoom
	if err := r.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload work room %d: %w", roomID, err)
	}
	return &room, nil
}

// DeleteWorkRoom removes a work room by id
func (r *roomRepository) DeleteWorkRoom(ctx context.Context, roomID int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.WorkRoom{}, roomID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}
