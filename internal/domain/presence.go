package domain

// Status is the availability a user advertises to the rest of the Hive.
type Status string

const (
	StatusOnline Status = "online"
	StatusBusy   Status = "busy"
	StatusAway   Status = "away"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusBusy, StatusAway:
		return true
	}
	return false
}

// LocationType tells which table a location id refers to.
type LocationType string

const (
	LocationPrivate LocationType = "private"
	LocationShared  LocationType = "shared"
)

func (t LocationType) Valid() bool {
	return t == LocationPrivate || t == LocationShared
}

// User is the live presence record of a connected user.
type User struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Image           string       `json:"image,omitempty"`
	Status          Status       `json:"status"`
	CurrentLocation int64        `json:"currentLocation"`
	LocationType    LocationType `json:"locationType"`
}

// At reports whether the user currently stands in the given room.
func (u *User) At(locationID int64, locationType LocationType) bool {
	return u.CurrentLocation == locationID && u.LocationType == locationType
}
