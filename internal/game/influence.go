package game

import (
	"context"

	"go.uber.org/zap"
)

// applyPoliticianInfluence folds pending influence actions into their
// target district's attached politician. Deltas are signed by the
// action's IsPositive flag, accumulated per politician in memory, and
// the final ideology is clamped to the valid range and persisted only
// when it changed; the politician's influence counter accumulates the
// same deltas. Actions are always closed DONE, even when no politician
// is attached to the district (fail-soft). Resource costs were charged
// at submission time and are not touched here.
func (e *Engine) applyPoliticianInfluence(ctx context.Context) error {
	actions, err := e.store.Actions(ctx, ActionFilter{
		Status:       StatusPending,
		Kind:         KindInfluence,
		WithDistrict: true,
	})
	if err != nil {
		return err
	}
	e.log.Info("pending influence actions found", zap.Int("count", len(actions)))
	if len(actions) == 0 {
		return nil
	}

	politicians, err := e.store.Politicians(ctx)
	if err != nil {
		return err
	}
	// At most one active politician per district counts for multiplier
	// purposes; the first by id wins, matching the multiplier phase.
	byDistrict := make(map[int64]*Politician)
	for _, p := range politicians {
		if p.DistrictID == 0 {
			continue
		}
		if _, ok := byDistrict[p.DistrictID]; !ok {
			byDistrict[p.DistrictID] = p
		}
	}

	deltas := make(map[int64]int)
	var closed []int64
	for _, a := range actions {
		closed = append(closed, a.ID)

		p := byDistrict[a.DistrictID]
		if p == nil {
			e.log.Warn("no politician attached to district, influence action closed without effect",
				zap.Int64("action_id", a.ID),
				zap.Int64("district_id", a.DistrictID),
			)
			continue
		}

		magnitude := a.Resources.Influence
		if magnitude < 0 {
			magnitude = 0
		}
		if a.IsPositive {
			deltas[p.ID] += magnitude
		} else {
			deltas[p.ID] -= magnitude
		}
	}

	var changed []*Politician
	for _, p := range politicians {
		delta, ok := deltas[p.ID]
		if !ok || delta == 0 {
			continue
		}
		next := ClampIdeology(p.Ideology + delta)
		p.Influence += delta
		if next != p.Ideology {
			e.log.Debug("politician ideology shifted",
				zap.Int64("politician_id", p.ID),
				zap.Int("from", p.Ideology),
				zap.Int("to", next),
			)
			p.Ideology = next
		}
		changed = append(changed, p)
	}

	if len(changed) > 0 {
		if err := e.store.SavePoliticians(ctx, changed...); err != nil {
			return err
		}
	}
	if len(closed) > 0 {
		if err := e.store.CloseActions(ctx, StatusDone, closed...); err != nil {
			return err
		}
	}

	e.log.Info("politician influence applied",
		zap.Int("actions_closed", len(closed)),
		zap.Int("politicians_changed", len(changed)),
	)
	return nil
}
