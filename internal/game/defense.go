package game

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// buildDefensePools seeds each non-contested district's defense from its
// banked control points, zeroing the bank (control points are spent as
// this cycle's starting defense), then adds converted pending defense
// actions in id order. Every consumed defense action is closed DONE.
func (e *Engine) buildDefensePools(ctx context.Context, contested map[int64]bool) (map[int64]int, error) {
	districts, err := e.store.Districts(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Info("districts loaded", zap.Int("count", len(districts)))

	pool := make(map[int64]int)
	var seeded []*District
	for _, d := range districts {
		if contested[d.ID] {
			continue
		}
		if d.ControlPoints > 0 {
			pool[d.ID] += d.ControlPoints
			e.log.Debug("defense seeded from control points",
				zap.Int64("district_id", d.ID),
				zap.Int("points", d.ControlPoints),
			)
			d.ControlPoints = 0
			d.ControlLevel = ControlLevelFor(0)
			seeded = append(seeded, d)
		}
	}
	if len(seeded) > 0 {
		if err := e.store.SaveDistricts(ctx, seeded...); err != nil {
			return nil, err
		}
	}

	defenses, err := e.store.Actions(ctx, ActionFilter{
		Status:       StatusPending,
		Kind:         KindDefense,
		WithDistrict: true,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(defenses, func(i, j int) bool { return defenses[i].ID < defenses[j].ID })
	e.log.Info("pending defense actions found", zap.Int("count", len(defenses)))

	var consumed []int64
	for _, a := range defenses {
		if contested[a.DistrictID] {
			continue
		}
		pts := PointsFor(KindDefense, a, e.rates)
		pool[a.DistrictID] += pts
		consumed = append(consumed, a.ID)
		e.log.Debug("defense action converted",
			zap.Int64("district_id", a.DistrictID),
			zap.Int64("action_id", a.ID),
			zap.Int("points", pts),
		)
	}
	if len(consumed) > 0 {
		if err := e.store.CloseActions(ctx, StatusDone, consumed...); err != nil {
			return nil, err
		}
	}

	return pool, nil
}

// convertLeftoverDefense banks any defense remaining after attack
// resolution back into district control points and refreshes the derived
// control level. Contested districts and non-positive remainders skip.
func (e *Engine) convertLeftoverDefense(ctx context.Context, pool map[int64]int, contested map[int64]bool) error {
	if len(pool) == 0 {
		e.log.Info("defense pool empty, nothing to convert")
		return nil
	}

	var updated []*District
	for districtID, remaining := range pool {
		if remaining <= 0 || contested[districtID] {
			continue
		}
		d, err := e.store.DistrictByID(ctx, districtID)
		if err != nil {
			return err
		}
		if d == nil {
			e.log.Warn("district vanished before leftover conversion", zap.Int64("district_id", districtID))
			continue
		}
		d.ControlPoints += remaining
		d.ControlLevel = ControlLevelFor(d.ControlPoints)
		updated = append(updated, d)
		e.log.Debug("leftover defense banked",
			zap.Int64("district_id", districtID),
			zap.Int("points", remaining),
		)
	}

	if len(updated) > 0 {
		if err := e.store.SaveDistricts(ctx, updated...); err != nil {
			return err
		}
	}
	e.log.Info("leftover defense converted", zap.Int("districts", len(updated)))
	return nil
}
