package game

import (
	"fmt"
	"time"
)

// ActionStatus represents the lifecycle state of an action.
// Terminal states (DONE, FAILED, DELETED) are immutable.
type ActionStatus string

const (
	StatusDraft   ActionStatus = "draft"
	StatusPending ActionStatus = "pending"
	StatusDone    ActionStatus = "done"
	StatusFailed  ActionStatus = "failed"
	StatusDeleted ActionStatus = "deleted"
)

// ActionType classifies how an action participates in resolution.
type ActionType string

const (
	TypeIndividual    ActionType = "individual"
	TypeSupport       ActionType = "support"
	TypeCollective    ActionType = "collective"
	TypeScoutDistrict ActionType = "scout_dist"
	TypeScoutInfo     ActionType = "scout_info"
	TypeInfluence     ActionType = "influence"
)

// Action kinds the cycle resolves. Kind is free-form in the data model;
// these are the ones with engine semantics.
const (
	KindAttack    = "attack"
	KindDefense   = "defense"
	KindInfluence = "influence"
)

// ScoutKinds are the action kinds closed by the scouting phase.
var ScoutKinds = []string{"scout_dist", "scout_info"}

// Ideology bounds for users and politicians.
const (
	IdeologyMin = -5
	IdeologyMax = 5
)

// ClampIdeology clamps v to the valid ideology range.
func ClampIdeology(v int) int {
	if v < IdeologyMin {
		return IdeologyMin
	}
	if v > IdeologyMax {
		return IdeologyMax
	}
	return v
}

// Resources is the four-component resource vector shared by users,
// districts and actions.
type Resources struct {
	Force       int
	Money       int
	Influence   int
	Information int
}

// Add returns the component-wise sum of r and other.
func (r Resources) Add(other Resources) Resources {
	return Resources{
		Force:       r.Force + other.Force,
		Money:       r.Money + other.Money,
		Influence:   r.Influence + other.Influence,
		Information: r.Information + other.Information,
	}
}

// Clamped returns r with every negative component floored at 0.
func (r Resources) Clamped() Resources {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	return Resources{
		Force:       clamp(r.Force),
		Money:       clamp(r.Money),
		Influence:   clamp(r.Influence),
		Information: clamp(r.Information),
	}
}

// IsZero reports whether all components are zero.
func (r Resources) IsZero() bool {
	return r == Resources{}
}

// User is a registered player.
type User struct {
	ID                  int64
	Username            string
	InGameName          string
	Faction             string
	Balance             Resources
	Base                Resources // granted unconditionally each cycle
	Ideology            int       // -5..+5
	AvailableActions    int
	MaxAvailableActions int
	ActionsRefreshAt    time.Time
	IsAdmin             bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DisplayName returns the name used in news and notifications.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.InGameName != "" {
		return u.InGameName
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User#%d", u.ID)
}

// FactionName returns the user's faction label or a placeholder.
func (u *User) FactionName() string {
	if u == nil || u.Faction == "" {
		return "no faction"
	}
	return u.Faction
}

// ControlLevel is the coarse display level derived from banked control points.
type ControlLevel string

const (
	ControlNone        ControlLevel = "NONE"
	ControlMinimal     ControlLevel = "MINIMAL"
	ControlPartial     ControlLevel = "PARTIAL"
	ControlSignificant ControlLevel = "SIGNIFICANT"
	ControlFull        ControlLevel = "FULL"
)

// ControlLevelFor maps banked control points to a display level.
func ControlLevelFor(points int) ControlLevel {
	switch {
	case points <= 0:
		return ControlNone
	case points < 25:
		return ControlMinimal
	case points < 50:
		return ControlPartial
	case points < 75:
		return ControlSignificant
	default:
		return ControlFull
	}
}

// Resource multiplier bounds; the multiplier is quantized to 0.1 steps.
const (
	MultiplierMin = 0.40
	MultiplierMax = 1.20
)

// District is a contestable territory with exactly one owner.
type District struct {
	ID                 int64
	Name               string
	OwnerID            int64
	ControlPoints      int
	ControlLevel       ControlLevel
	ResourceMultiplier float64 // 0.40..1.20, 0.1 steps
	Base               Resources
	CreatedAt          time.Time
}

// EffectiveResources applies the district's resource multiplier to its
// base rates, rounding each component to the nearest integer.
func (d *District) EffectiveResources() Resources {
	mul := d.ResourceMultiplier
	scale := func(v int) int {
		return int(roundHalfUp(float64(v) * mul))
	}
	return Resources{
		Force:       scale(d.Base.Force),
		Money:       scale(d.Base.Money),
		Influence:   scale(d.Base.Influence),
		Information: scale(d.Base.Information),
	}
}

// Action is a player-submitted, resource-backed request resolved exactly
// once by the cycle. DistrictID and ParentID use 0 for "not set"; support
// actions reference their parent by id, never by pointer, so aggregation
// walks records without the possibility of cycles.
type Action struct {
	ID         int64
	OwnerID    int64
	DistrictID int64 // 0 = no district
	ParentID   int64 // 0 = no parent; set for SUPPORT actions
	Kind       string
	Type       ActionType
	Status     ActionStatus
	Title      string
	Resources  Resources
	OnPoint    bool
	WonOnPoint *bool // nil until the player self-reports a duel outcome
	IsPositive bool  // sign of an influence action's delta
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Politician is a named figure optionally attached to a district; the
// closeness of its ideology to the district owner's drives the resource
// multiplier.
type Politician struct {
	ID         int64
	Name       string
	Role       string
	DistrictID int64 // 0 = unattached
	Ideology   int   // -5..+5
	Influence  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewsEntry is an append-only audit record emitted during resolution.
type NewsEntry struct {
	Title      string
	Body       string
	Tag        string
	ActionID   int64 // 0 = none
	DistrictID int64 // 0 = none
	CreatedAt  time.Time
}

// ScoutWatch is a user observing a district as the result of a scouting
// action; cleared at the end of every cycle.
type ScoutWatch struct {
	UserID     int64
	DistrictID int64
}

// roundHalfUp rounds to the nearest integer with ties away from zero
// for positive input (half-up).
func roundHalfUp(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return -float64(int64(-x + 0.5))
}
