package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Errors returned by the duel resolver for caller-visible conditions.
var (
	ErrActionNotFound   = errors.New("action not found")
	ErrDistrictNotFound = errors.New("district not found")
	ErrNoDuelActions    = errors.New("no eligible on-point actions for district")
)

// DuelResolver settles districts left contested by a cycle. It runs
// outside the batch, driven by player self-reports and admin overrides,
// and uses the cycle-finished marker as the eligibility cutoff for
// pending on-point actions. It is reentrant: every report re-reads the
// full action set, so concurrent reports on the same district converge.
type DuelResolver struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
}

// NewDuelResolver wires the resolver's collaborators. A nil notifier
// degrades to a no-op.
func NewDuelResolver(store Store, notifier Notifier, logger *zap.Logger) *DuelResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &DuelResolver{store: store, notifier: notifier, log: logger}
}

// ReportOutcome records a participant's self-reported duel result on
// their action and attempts to resolve the district's dispute if every
// participant has now responded.
func (r *DuelResolver) ReportOutcome(ctx context.Context, actionID int64, won bool) error {
	action, err := r.store.ActionByID(ctx, actionID)
	if err != nil {
		return err
	}
	if action == nil {
		return ErrActionNotFound
	}

	action.WonOnPoint = &won
	if err := r.store.SaveActions(ctx, action); err != nil {
		return err
	}
	r.log.Info("duel outcome reported",
		zap.Int64("action_id", actionID),
		zap.Bool("won", won),
	)

	if action.DistrictID == 0 {
		return nil
	}
	return r.tryResolve(ctx, action.DistrictID)
}

// tryResolve checks whether all eligible on-point actions for the
// district carry a report. Exactly one self-reported winner transfers
// ownership and closes the actions; zero or several winners escalate to
// the admins with the raw tally and no automatic effect.
func (r *DuelResolver) tryResolve(ctx context.Context, districtID int64) error {
	actions, err := r.eligibleActions(ctx, districtID)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	for _, a := range actions {
		if a.WonOnPoint == nil {
			// Still waiting on at least one participant.
			return nil
		}
	}

	var winners []*Action
	for _, a := range actions {
		if *a.WonOnPoint {
			winners = append(winners, a)
		}
	}

	if len(winners) == 1 {
		return r.settle(ctx, districtID, winners[0].OwnerID, actions)
	}
	return r.escalate(ctx, districtID, actions)
}

// SetDistrictOwner is the admin override: it marks the winner's eligible
// on-point actions as won and everyone else's as lost, reassigns the
// district, closes all of them, and notifies the participants. It
// bypasses the unanimous-report requirement.
func (r *DuelResolver) SetDistrictOwner(ctx context.Context, districtID, winnerUserID int64) error {
	actions, err := r.eligibleActions(ctx, districtID)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return ErrNoDuelActions
	}

	won, lost := true, false
	for _, a := range actions {
		if a.OwnerID == winnerUserID {
			a.WonOnPoint = &won
		} else {
			a.WonOnPoint = &lost
		}
	}
	if err := r.store.SaveActions(ctx, actions...); err != nil {
		return err
	}

	return r.settle(ctx, districtID, winnerUserID, actions)
}

// eligibleActions returns the district's pending on-point actions
// created at or before the last cycle-finished marker. Without a marker
// the current time is used, matching the pre-first-cycle behavior.
func (r *DuelResolver) eligibleActions(ctx context.Context, districtID int64) ([]*Action, error) {
	cutoff, err := r.store.LastCycleFinished(ctx)
	if err != nil {
		return nil, err
	}
	if cutoff.IsZero() {
		cutoff = time.Now().UTC()
	}

	onPoint := true
	return r.store.Actions(ctx, ActionFilter{
		Status:        StatusPending,
		OnPoint:       &onPoint,
		DistrictID:    districtID,
		CreatedBefore: cutoff,
	})
}

func (r *DuelResolver) settle(ctx context.Context, districtID, winnerUserID int64, actions []*Action) error {
	district, err := r.store.DistrictByID(ctx, districtID)
	if err != nil {
		return err
	}
	if district == nil {
		return ErrDistrictNotFound
	}

	if err := r.store.ReassignDistrictOwner(ctx, districtID, winnerUserID); err != nil {
		return fmt.Errorf("reassigning district %d: %w", districtID, err)
	}

	ids := make([]int64, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	if err := r.store.CloseActions(ctx, StatusDone, ids...); err != nil {
		return err
	}

	winner, err := r.store.UserByID(ctx, winnerUserID)
	if err != nil {
		return err
	}
	r.log.Info("duel resolved",
		zap.Int64("district_id", districtID),
		zap.Int64("winner_user_id", winnerUserID),
		zap.Int("actions_closed", len(ids)),
	)

	body := fmt.Sprintf("The personal duel in district %q was won by %s.", district.Name, winner.DisplayName())
	for _, userID := range participantIDs(actions) {
		r.notifier.Notify(ctx, userID, "Duel resolved", body)
	}
	return nil
}

// escalate notifies every admin with the raw tally, one override command
// hint per participant, and takes no automatic action.
func (r *DuelResolver) escalate(ctx context.Context, districtID int64, actions []*Action) error {
	users, err := r.store.Users(ctx)
	if err != nil {
		return err
	}
	var admins []*User
	byID := make(map[int64]*User, len(users))
	for _, u := range users {
		byID[u.ID] = u
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}
	if len(admins) == 0 {
		r.log.Warn("duel unresolved and no admins to escalate to", zap.Int64("district_id", districtID))
		return nil
	}

	district, err := r.store.DistrictByID(ctx, districtID)
	if err != nil {
		return err
	}
	districtName := fmt.Sprintf("#%d", districtID)
	if district != nil {
		districtName = district.Name
	}

	var lines []string
	for _, a := range actions {
		owner := byID[a.OwnerID]
		name := fmt.Sprintf("user%d", a.OwnerID)
		if owner != nil {
			name = owner.DisplayName()
		}
		mark := "won=unset"
		if a.WonOnPoint != nil {
			mark = fmt.Sprintf("won=%t", *a.WonOnPoint)
		}
		lines = append(lines, fmt.Sprintf("set_district_owner #%d %s -- %s", districtID, name, mark))
	}
	body := fmt.Sprintf("Contested district %s did not resolve:\n%s", districtName, strings.Join(lines, "\n"))

	r.log.Info("duel escalated to admins",
		zap.Int64("district_id", districtID),
		zap.Int("admins", len(admins)),
	)
	for _, admin := range admins {
		r.notifier.Notify(ctx, admin.ID, "Manual resolution required", body)
	}
	return nil
}

func participantIDs(actions []*Action) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, a := range actions {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			ids = append(ids, a.OwnerID)
		}
	}
	return ids
}
