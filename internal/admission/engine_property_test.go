package admission

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"presence-service/internal/domain"
	"presence-service/internal/presence"
)

var statuses = []domain.Status{domain.StatusOnline, domain.StatusBusy, domain.StatusAway}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

// For any owner state, a guest never gets into a locked private room.
func TestProperty_LockedRoomExclusion(t *testing.T) {
	properties := newProperties()

	properties.Property("guest location is unchanged", prop.ForAll(
		func(guestID int64, ownerPresent, ownerHome bool, statusIdx int) bool {
			e, _ := newTestEngine()
			st := newTestState()
			placeOwner(e, st, ownerPresent, ownerHome, statuses[statusIdx])

			st.Users.UpsertOnJoin(domain.User{ID: guestID, CurrentLocation: 10, LocationType: domain.LocationShared})

			err := e.Enter(st, guestID, 2, domain.LocationPrivate)
			reason, _ := ReasonOf(err)
			guest := st.Users.Find(guestID)

			return reason == ReasonRoomLocked &&
				guest.CurrentLocation == 10 &&
				guest.LocationType == domain.LocationShared
		},
		gen.Int64Range(100, 100000),
		gen.Bool(),
		gen.Bool(),
		gen.IntRange(0, len(statuses)-1),
	))

	properties.TestingRun(t)
}

// placeOwner sets up user 2, owner of locked room 2, in the requested state.
func placeOwner(e *Engine, st *presence.State, present, home bool, status domain.Status) {
	if !present {
		return
	}
	_ = e.Join(context.Background(), st, domain.UserIdentity{ID: 2})
	owner := st.Users.Find(2)
	owner.Status = status
	if !home {
		owner.CurrentLocation = 10
		owner.LocationType = domain.LocationShared
	}
}

// Entry into an unlocked private room succeeds exactly when the owner is in
// it and not busy.
func TestProperty_OwnerPresenceRequirement(t *testing.T) {
	properties := newProperties()

	properties.Property("admitted iff owner home and not busy", prop.ForAll(
		func(ownerPresent, ownerHome bool, statusIdx int) bool {
			e, _ := newTestEngine()
			st := newTestState()
			st.PrivateRoom(2).IsLocked = false
			status := statuses[statusIdx]
			placeOwner(e, st, ownerPresent, ownerHome, status)
			_ = e.Join(context.Background(), st, domain.UserIdentity{ID: 3})

			err := e.Enter(st, 3, 2, domain.LocationPrivate)
			guest := st.Users.Find(3)

			expectAdmitted := ownerPresent && ownerHome && status != domain.StatusBusy
			if expectAdmitted {
				return err == nil && guest.CurrentLocation == 2
			}
			return err != nil && guest.CurrentLocation == 3
		},
		gen.Bool(),
		gen.Bool(),
		gen.IntRange(0, len(statuses)-1),
	))

	properties.TestingRun(t)
}

func TestProperty_CapacityValidation(t *testing.T) {
	properties := newProperties()

	properties.Property("non-positive capacities never reach the store", prop.ForAll(
		func(n int, quoted bool) bool {
			e, store := newTestEngine()
			st := newTestState()

			raw := strconv.Itoa(n)
			if quoted {
				raw = strconv.Quote(raw)
			}
			_, err := e.Create(context.Background(), st, json.RawMessage(raw))
			reason, _ := ReasonOf(err)

			return reason == ReasonInvalidCapacity && store.Calls == 0 && len(st.WorkRooms) == 1
		},
		gen.IntRange(-100000, 0),
		gen.Bool(),
	))

	properties.Property("positive capacities are persisted as given", prop.ForAll(
		func(n int, quoted bool) bool {
			e, store := newTestEngine()
			st := newTestState()

			raw := strconv.Itoa(n)
			if quoted {
				raw = strconv.Quote(" " + raw + " ")
			}
			room, err := e.Create(context.Background(), st, json.RawMessage(raw))

			return err == nil && store.Calls == 1 && room.MaxUsers == n
		},
		gen.IntRange(1, 100000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// A requester standing in the room can never delete it, whoever else is there.
func TestProperty_SelfDeleteGuard(t *testing.T) {
	properties := newProperties()

	properties.Property("room and occupants untouched", prop.ForAll(
		func(occupants []bool) bool {
			e, store := newTestEngine()
			st := newTestState()
			st.Users.UpsertOnJoin(domain.User{ID: 1, CurrentLocation: 10, LocationType: domain.LocationShared})
			for i, inside := range occupants {
				u := domain.User{ID: int64(100 + i), CurrentLocation: 1, LocationType: domain.LocationPrivate}
				if inside {
					u.CurrentLocation, u.LocationType = 10, domain.LocationShared
				}
				st.Users.UpsertOnJoin(u)
			}
			before := st.Users.Users()

			err := e.Delete(context.Background(), st, 1, 10)
			reason, _ := ReasonOf(err)
			after := st.Users.Users()

			if reason != ReasonInsideRoom || store.Calls != 0 || st.WorkRoom(10) == nil {
				return false
			}
			for i := range before {
				if before[i] != after[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
