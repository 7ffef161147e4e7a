package admission

import (
	"errors"
	"fmt"
)

// Reason names why a control message was refused.
type Reason string

const (
	ReasonUserNotFound    Reason = "user_not_found"
	ReasonRoomNotFound    Reason = "room_not_found"
	ReasonRoomLocked      Reason = "room_locked"
	ReasonOwnerAbsent     Reason = "owner_absent"
	ReasonOwnerBusy       Reason = "owner_busy"
	ReasonInsideRoom      Reason = "inside_room"
	ReasonInvalidCapacity Reason = "invalid_capacity"
	ReasonInvalidStatus   Reason = "invalid_status"
	ReasonStoreFailure    Reason = "store_failure"
)

// Rejection is returned when a rule refuses an action. State is unchanged
// whenever an engine operation returns one.
type Rejection struct {
	Reason Reason
	Detail string
	Err    error
}

func (r *Rejection) Error() string {
	msg := string(r.Reason)
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	if r.Err != nil {
		msg += ": " + r.Err.Error()
	}
	return msg
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func storeFailure(err error) *Rejection {
	return &Rejection{Reason: ReasonStoreFailure, Err: err}
}

// ReasonOf extracts the rejection reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
