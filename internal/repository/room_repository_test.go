package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"presence-service/internal/domain"
)

func setupRoomTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// every pooled connection to :memory: would get its own empty database
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Hive{}, &domain.PrivateRoom{}, &domain.WorkRoom{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedHive(t *testing.T, db *gorm.DB, id int64) {
	require.NoError(t, db.Create(&domain.Hive{ID: id, Name: "hive"}).Error)
}

func TestRoomRepository_GetPrivateRooms(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	seedHive(t, db, 1)
	seedHive(t, db, 2)
	db.Create(&domain.PrivateRoom{UserID: 10, HiveID: 1, RoomName: "Ada"})
	db.Create(&domain.PrivateRoom{UserID: 11, HiveID: 1, RoomName: "Bob"})
	db.Create(&domain.PrivateRoom{UserID: 12, HiveID: 2, RoomName: "Eve"})

	rooms, err := repo.GetPrivateRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Ada", rooms[0].RoomName)
	assert.True(t, rooms[0].IsLocked, "private rooms are locked by default")
	assert.Equal(t, "Bob", rooms[1].RoomName)
}

func TestRoomRepository_GetPrivateRooms_HiveNotFound(t *testing.T) {
	repo := NewRoomRepository(setupRoomTestDB(t))

	_, err := repo.GetPrivateRooms(context.Background(), 99)
	assert.ErrorIs(t, err, ErrHiveNotFound)
}

func TestRoomRepository_GetPrivateRoomOfUser_LowestID(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)

	seedHive(t, db, 1)
	first := &domain.PrivateRoom{UserID: 10, HiveID: 1, RoomName: "first"}
	second := &domain.PrivateRoom{UserID: 10, HiveID: 1, RoomName: "second"}
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error)

	room, err := repo.GetPrivateRoomOfUser(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, first.ID, room.ID)

	_, err = repo.GetPrivateRoomOfUser(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepository_UpdatePrivateRoom(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	seedHive(t, db, 1)
	room := &domain.PrivateRoom{UserID: 10, HiveID: 1, RoomName: "Ada"}
	require.NoError(t, db.Create(room).Error)

	updated, err := repo.UpdatePrivateRoom(ctx, room.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsLocked)
	assert.Equal(t, "Ada", updated.RoomName)

	_, err = repo.UpdatePrivateRoom(ctx, 999, true)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepository_WorkRoomLifecycle(t *testing.T) {
	db := setupRoomTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := &domain.WorkRoom{HiveID: 1, RoomName: domain.DefaultWorkRoomName, MaxUsers: 5}
	require.NoError(t, repo.AddWorkRoom(ctx, room))
	assert.NotZero(t, room.ID)

	rooms, err := repo.GetWorkRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.False(t, rooms[0].IsLocked)

	updated, err := repo.UpdateWorkRoom(ctx, room.ID, room.RoomName, room.MaxUsers, true)
	require.NoError(t, err)
	assert.True(t, updated.IsLocked)
	assert.Equal(t, 5, updated.MaxUsers)
	assert.Equal(t, domain.DefaultWorkRoomName, updated.RoomName)

	require.NoError(t, repo.DeleteWorkRoom(ctx, room.ID))
	rooms, err = repo.GetWorkRooms(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	assert.ErrorIs(t, repo.DeleteWorkRoom(ctx, room.ID), ErrRoomNotFound)
	_, err = repo.UpdateWorkRoom(ctx, room.ID, "x", 1, false)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepository_AddWorkRoom_Validation(t *testing.T) {
	repo := NewRoomRepository(setupRoomTestDB(t))
	ctx := context.Background()

	assert.ErrorIs(t, repo.AddWorkRoom(ctx, &domain.WorkRoom{RoomName: "x", MaxUsers: 1}), ErrInvalidWorkRoom)
	assert.ErrorIs(t, repo.AddWorkRoom(ctx, &domain.WorkRoom{HiveID: 1, RoomName: "  ", MaxUsers: 1}), ErrInvalidWorkRoom)
}
