package game

import (
	"context"
	"time"
)

// ActionFilter narrows an action query. Zero values mean "no constraint";
// string and slice fields are ANDed together.
type ActionFilter struct {
	Status        ActionStatus
	Kind          string
	Kinds         []string
	Type          ActionType
	OnPoint       *bool
	DistrictID    int64 // match a specific district
	WithDistrict  bool  // only actions that target some district
	WithParent    bool  // only actions with a parent (SUPPORT children)
	CreatedBefore time.Time
}

func (f ActionFilter) matches(a *Action) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if a.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.OnPoint != nil && a.OnPoint != *f.OnPoint {
		return false
	}
	if f.DistrictID != 0 && a.DistrictID != f.DistrictID {
		return false
	}
	if f.WithDistrict && a.DistrictID == 0 {
		return false
	}
	if f.WithParent && a.ParentID == 0 {
		return false
	}
	if !f.CreatedBefore.IsZero() && a.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	return true
}

// Store is the persistence collaborator. The engine only depends on the
// read-by-filter and batch-update contracts below; schema and indexing
// are the implementation's concern. All writes within one call are a
// single batch; the cycle as a whole is not one transaction.
type Store interface {
	Users(ctx context.Context) ([]*User, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	SaveUsers(ctx context.Context, users ...*User) error

	Districts(ctx context.Context) ([]*District, error)
	DistrictByID(ctx context.Context, id int64) (*District, error)
	SaveDistricts(ctx context.Context, districts ...*District) error
	// ReassignDistrictOwner atomically reassigns ownership; the district
	// record is updated in place, never deleted and recreated.
	ReassignDistrictOwner(ctx context.Context, districtID, newOwnerID int64) error

	// Actions returns actions matching the filter ordered by creation
	// time ascending, ties broken by id ascending.
	Actions(ctx context.Context, filter ActionFilter) ([]*Action, error)
	ActionByID(ctx context.Context, id int64) (*Action, error)
	SaveActions(ctx context.Context, actions ...*Action) error
	// CloseActions moves the given actions into a terminal status.
	CloseActions(ctx context.Context, status ActionStatus, ids ...int64) error

	Politicians(ctx context.Context) ([]*Politician, error)
	SavePoliticians(ctx context.Context, politicians ...*Politician) error

	ScoutWatches(ctx context.Context) ([]ScoutWatch, error)
	ClearScoutWatches(ctx context.Context) error

	// LastCycleFinished returns the cycle marker, or the zero time if no
	// cycle has completed yet.
	LastCycleFinished(ctx context.Context) (time.Time, error)
	SetLastCycleFinished(ctx context.Context, finished time.Time) error
}

// Notifier delivers a message to a player. Implementations are
// best-effort and must swallow their own transport errors.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, body string)
}

// NewsSink records append-only audit entries. Failures are logged by the
// caller and never abort a phase.
type NewsSink interface {
	Record(ctx context.Context, entry NewsEntry) error
}
