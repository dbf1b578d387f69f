package game

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a complete in-memory Store. It backs the engine's test
// suites and small local runs; the pgx-backed repository is the
// production implementation. Records are copied on the way in and out so
// callers never share memory with the store.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[int64]*User
	districts   map[int64]*District
	actions     map[int64]*Action
	politicians map[int64]*Politician
	watches     []ScoutWatch
	lastCycle   time.Time
	nextID      int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*User),
		districts:   make(map[int64]*District),
		actions:     make(map[int64]*Action),
		politicians: make(map[int64]*Politician),
		nextID:      1,
	}
}

// NextID hands out a fresh record id, mimicking an autoincrement column.
func (s *MemoryStore) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// PutUser inserts or replaces a user, assigning an id when unset.
func (s *MemoryStore) PutUser(u *User) *User {
	if u.ID == 0 {
		u.ID = s.NextID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
	return u
}

// PutDistrict inserts or replaces a district, assigning an id when unset.
func (s *MemoryStore) PutDistrict(d *District) *District {
	if d.ID == 0 {
		d.ID = s.NextID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.districts[d.ID] = copyDistrict(d)
	return d
}

// PutAction inserts or replaces an action, assigning an id and creation
// time when unset.
func (s *MemoryStore) PutAction(a *Action) *Action {
	if a.ID == 0 {
		a.ID = s.NextID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.ID] = copyAction(a)
	return a
}

// PutPolitician inserts or replaces a politician, assigning an id when
// unset.
func (s *MemoryStore) PutPolitician(p *Politician) *Politician {
	if p.ID == 0 {
		p.ID = s.NextID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.politicians[p.ID] = copyPolitician(p)
	return p
}

// AddScoutWatch records a user observing a district.
func (s *MemoryStore) AddScoutWatch(userID, districtID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches = append(s.watches, ScoutWatch{UserID: userID, DistrictID: districtID})
}

func (s *MemoryStore) Users(ctx context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UserByID(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) SaveUsers(ctx context.Context, users ...*User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		u.UpdatedAt = time.Now().UTC()
		s.users[u.ID] = copyUser(u)
	}
	return nil
}

func (s *MemoryStore) Districts(ctx context.Context) ([]*District, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*District, 0, len(s.districts))
	for _, d := range s.districts {
		out = append(out, copyDistrict(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) DistrictByID(ctx context.Context, id int64) (*District, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDistrict(s.districts[id]), nil
}

func (s *MemoryStore) SaveDistricts(ctx context.Context, districts ...*District) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range districts {
		s.districts[d.ID] = copyDistrict(d)
	}
	return nil
}

func (s *MemoryStore) ReassignDistrictOwner(ctx context.Context, districtID, newOwnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.districts[districtID]
	if !ok {
		return ErrDistrictNotFound
	}
	d.OwnerID = newOwnerID
	return nil
}

func (s *MemoryStore) Actions(ctx context.Context, filter ActionFilter) ([]*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Action
	for _, a := range s.actions {
		if filter.matches(a) {
			out = append(out, copyAction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ActionByID(ctx context.Context, id int64) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAction(s.actions[id]), nil
}

func (s *MemoryStore) SaveActions(ctx context.Context, actions ...*Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		a.UpdatedAt = time.Now().UTC()
		s.actions[a.ID] = copyAction(a)
	}
	return nil
}

func (s *MemoryStore) CloseActions(ctx context.Context, status ActionStatus, ids ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range ids {
		if a, ok := s.actions[id]; ok {
			a.Status = status
			a.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemoryStore) Politicians(ctx context.Context) ([]*Politician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Politician, 0, len(s.politicians))
	for _, p := range s.politicians {
		out = append(out, copyPolitician(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SavePoliticians(ctx context.Context, politicians ...*Politician) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range politicians {
		p.UpdatedAt = time.Now().UTC()
		s.politicians[p.ID] = copyPolitician(p)
	}
	return nil
}

func (s *MemoryStore) ScoutWatches(ctx context.Context) ([]ScoutWatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScoutWatch, len(s.watches))
	copy(out, s.watches)
	return out, nil
}

func (s *MemoryStore) ClearScoutWatches(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches = nil
	return nil
}

func (s *MemoryStore) LastCycleFinished(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycle, nil
}

func (s *MemoryStore) SetLastCycleFinished(ctx context.Context, finished time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycle = finished
	return nil
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func copyDistrict(d *District) *District {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func copyAction(a *Action) *Action {
	if a == nil {
		return nil
	}
	cp := *a
	if a.WonOnPoint != nil {
		won := *a.WonOnPoint
		cp.WonOnPoint = &won
	}
	return &cp
}

func copyPolitician(p *Politician) *Politician {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
