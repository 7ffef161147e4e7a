package domain

import (
	"time"
)

// Hive is the tenant every room and presence record belongs to.
type Hive struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Hive) TableName() string {
	return "hives"
}

// PrivateRoom is a user's personal office inside a Hive.
// One room per (user, hive) is expected; lookups pick the lowest id.
type PrivateRoom struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"column:id_user;not null;index:idx_private_rooms_hive_user" json:"id_user"`
	HiveID    int64     `gorm:"column:id_hive;not null;index:idx_private_rooms_hive_user" json:"id_hive"`
	RoomName  string    `gorm:"column:room_name;size:255;not null" json:"room_name"`
	IsLocked  bool      `gorm:"column:is_locked;not null;default:true" json:"is_locked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PrivateRoom) TableName() string {
	return "private_rooms"
}

// WorkRoom is a shared space inside a Hive, created and deleted at runtime.
type WorkRoom struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	HiveID    int64     `gorm:"column:id_hive;not null;index" json:"id_hive"`
	RoomName  string    `gorm:"column:room_name;size:255;not null" json:"room_name"`
	MaxUsers  int       `gorm:"column:max_users;not null" json:"max_users"`
	IsLocked  bool      `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (WorkRoom) TableName() string {
	return "work_rooms"
}

// DefaultWorkRoomName is assigned to every room created over the socket.
const DefaultWorkRoomName = "New-Room"
