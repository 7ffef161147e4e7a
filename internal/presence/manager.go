package presence

import (
	"sync"

	"go.uber.org/zap"
)

// Manager owns every live hive of the process. Lock order is Manager before
// Hive; nothing holding a hive lock may call back into the Manager.
type Manager struct {
	mu     sync.RWMutex
	hives  map[int64]*Hive
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		hives:  make(map[int64]*Hive),
		logger: logger,
	}
}

func (m *Manager) Get(hiveID int64) (*Hive, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hives[hiveID]
	return h, ok
}

func (m *Manager) GetOrCreate(hiveID int64) *Hive {
	if h, ok := m.Get(hiveID); ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hives[hiveID]; ok {
		return h
	}
	h := newHive(hiveID)
	m.hives[hiveID] = h
	m.logger.Debug("Hive state created", zap.Int64("hiveId", hiveID))
	return h
}

// Join runs fn under the lock of the hive's live instance, creating it if
// needed. fn is expected to attach a connection so the hive cannot be swept
// once Join returns.
func (m *Manager) Join(hiveID int64, fn func(st *State)) *Hive {
	for {
		h := m.GetOrCreate(hiveID)
		if h.tryDo(fn) {
			return h
		}
		// swept between lookup and lock; the next GetOrCreate builds a fresh one
	}
}

// Sweep drops hives with no bound connections and returns their ids.
// onRemove, when set, runs for each dropped hive before the Manager lock is
// released, so no new hive with the same id can start until it returns.
func (m *Manager) Sweep(onRemove func(hiveID int64)) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []int64
	for id, h := range m.hives {
		h.mu.Lock()
		if h.state.ConnCount() == 0 {
			h.retired = true
			delete(m.hives, id)
			removed = append(removed, id)
		}
		h.mu.Unlock()
	}

	if onRemove != nil {
		for _, id := range removed {
			onRemove(id)
		}
	}
	return removed
}

// Hives lists the live hives at the time of the call.
func (m *Manager) Hives() []*Hive {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Hive, 0, len(m.hives))
	for _, h := range m.hives {
		list = append(list, h)
	}
	return list
}

// Stats reports the number of live hives and presence records.
func (m *Manager) Stats() (hives, users int) {
	list := m.Hives()
	for _, h := range list {
		h.Do(func(st *State) {
			users += st.Users.Len()
		})
	}
	return len(list), users
}
