package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Inbound control message types.
const (
	MessageSetHive         = "setHive"
	MessageEnterWorkspace  = "enterWorkspace"
	MessageLockWorkspace   = "lockWorkspace"
	MessageCreateWorkspace = "createWorkSpace"
	MessageDeleteWorkspace = "deleteWorkSpace"
	MessageSetStatus       = "setStatus"
)

// Outbound message types.
const (
	MessageUpdate   = "update"
	MessageRejected = "rejected"
)

// ID is a numeric identifier that browsers send either as a JSON number
// or as a numeric string.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*id = 0
			return nil
		}
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", raw, err)
	}
	*id = ID(v)
	return nil
}

func (id ID) Int64() int64 {
	return int64(id)
}

// UserIdentity is the user object a client announces with setHive.
type UserIdentity struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// InboundMessage is the union of every control message a client may send;
// Type selects which fields are meaningful.
type InboundMessage struct {
	Type string `json:"type"`

	// setHive
	HiveID ID            `json:"id_hive"`
	User   *UserIdentity `json:"user,omitempty"`
	Token  string        `json:"token,omitempty"`

	// enterWorkspace, lockWorkspace, deleteWorkSpace, setStatus
	UserID      ID           `json:"userId"`
	WorkspaceID ID           `json:"workspaceId"`
	Room        LocationType `json:"room,omitempty"`
	Status      Status       `json:"status,omitempty"`

	// createWorkSpace; kept raw so that "abc" is a rejected capacity,
	// not an unreadable frame.
	WorkspaceMaxUsers json.RawMessage `json:"workspaceMaxUsers,omitempty"`
}

// DecodeInbound reads a control frame field by field. Only a body that is
// not a JSON object is an error. A field of the wrong shape reads as its zero
// value, so the message is still handled and refused by the rules instead of
// being dropped.
func DecodeInbound(data []byte) (InboundMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return InboundMessage{}, err
	}
	if fields == nil {
		return InboundMessage{}, errors.New("frame is null")
	}

	msg := InboundMessage{
		Type:              looseString(fields["type"]),
		HiveID:            looseID(fields["id_hive"]),
		Token:             looseString(fields["token"]),
		UserID:            looseID(fields["userId"]),
		WorkspaceID:       looseID(fields["workspaceId"]),
		Room:              LocationType(looseString(fields["room"])),
		Status:            Status(looseString(fields["status"])),
		WorkspaceMaxUsers: fields["workspaceMaxUsers"],
	}

	if raw, ok := fields["user"]; ok {
		var user map[string]json.RawMessage
		if json.Unmarshal(raw, &user) == nil && user != nil {
			msg.User = &UserIdentity{
				ID:    looseID(user["id"]),
				Name:  looseString(user["name"]),
				Image: looseString(user["image"]),
			}
		}
	}
	return msg, nil
}

func looseID(raw json.RawMessage) ID {
	var id ID
	if len(raw) == 0 || json.Unmarshal(raw, &id) != nil {
		return 0
	}
	return id
}

func looseString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// UpdateMessage is the full-state snapshot pushed to every connection of a Hive.
type UpdateMessage struct {
	Type         string        `json:"type"`
	Users        []User        `json:"users"`
	PrivateRooms []PrivateRoom `json:"private_rooms"`
	WorkRooms    []WorkRoom    `json:"work_rooms"`
}

// NewUpdateMessage never returns nil slices so clients always receive arrays.
func NewUpdateMessage(users []User, privateRooms []PrivateRoom, workRooms []WorkRoom) UpdateMessage {
	if users == nil {
		users = []User{}
	}
	if privateRooms == nil {
		privateRooms = []PrivateRoom{}
	}
	if workRooms == nil {
		workRooms = []WorkRoom{}
	}
	return UpdateMessage{
		Type:         MessageUpdate,
		Users:        users,
		PrivateRooms: privateRooms,
		WorkRooms:    workRooms,
	}
}

// RejectedMessage is only sent when rejection replies are enabled.
type RejectedMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}
