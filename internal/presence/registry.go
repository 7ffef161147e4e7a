package presence

import (
	"presence-service/internal/domain"
)

// Registry holds the live presence records of one hive, keyed by user id.
// It keeps insertion order so broadcasts list users in join order.
//
// Registry is not safe for concurrent use; it is only reached through the
// owning Hive's critical section.
type Registry struct {
	users map[int64]*domain.User
	order []int64
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[int64]*domain.User),
	}
}

// UpsertOnJoin inserts user if no record exists for its id and reports
// whether it did. An existing record is left untouched.
func (r *Registry) UpsertOnJoin(user domain.User) bool {
	if _, ok := r.users[user.ID]; ok {
		return false
	}
	if user.Status == "" {
		user.Status = domain.StatusOnline
	}
	r.users[user.ID] = &user
	r.order = append(r.order, user.ID)
	return true
}

// Remove deletes a presence record and reports whether one existed
func (r *Registry) Remove(userID int64) bool {
	if _, ok := r.users[userID]; !ok {
		return false
	}
	delete(r.users, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Find returns the live record; callers mutate it in place.
func (r *Registry) Find(userID int64) *domain.User {
	return r.users[userID]
}

// FindAllAt returns the live records located in the given room, in join order
func (r *Registry) FindAllAt(locationID int64, locationType domain.LocationType) []*domain.User {
	var found []*domain.User
	for _, id := range r.order {
		if u := r.users[id]; u.At(locationID, locationType) {
			found = append(found, u)
		}
	}
	return found
}

// Users returns copies of every record in join order.
func (r *Registry) Users() []domain.User {
	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.users[id])
	}
	return out
}

// Len returns the number of presence records
func (r *Registry) Len() int {
	return len(r.users)
}
