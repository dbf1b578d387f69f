package game

import (
	"context"

	"go.uber.org/zap"
)

// IdeologyMultiplier maps the distance between the owner's and the
// politician's ideology to a resource multiplier: diff 0 yields 1.20,
// each unit of distance costs 0.08, diff 10 yields 0.40. The distance is
// clamped to [0,10].
func IdeologyMultiplier(ownerIdeology, politicianIdeology int) float64 {
	diff := ownerIdeology - politicianIdeology
	if diff < 0 {
		diff = -diff
	}
	if diff > 10 {
		diff = 10
	}
	return MultiplierMax - 0.08*float64(diff)
}

// QuantizeMultiplier clamps the multiplier to [0.40, 1.20] and rounds it
// to the nearest 0.1 step, half-up.
func QuantizeMultiplier(mul float64) float64 {
	if mul < MultiplierMin {
		mul = MultiplierMin
	}
	if mul > MultiplierMax {
		mul = MultiplierMax
	}
	return roundHalfUp(mul*10) / 10
}

// recalcResourceMultipliers recomputes each district's resource
// multiplier from the ideology distance between its owner and its
// attached politician. Districts without a politician keep their
// previous multiplier untouched.
func (e *Engine) recalcResourceMultipliers(ctx context.Context) error {
	districts, err := e.store.Districts(ctx)
	if err != nil {
		return err
	}
	if len(districts) == 0 {
		e.log.Info("no districts, multipliers unchanged")
		return nil
	}

	politicians, err := e.store.Politicians(ctx)
	if err != nil {
		return err
	}
	byDistrict := make(map[int64]*Politician)
	for _, p := range politicians {
		if p.DistrictID == 0 {
			continue
		}
		if _, ok := byDistrict[p.DistrictID]; !ok {
			byDistrict[p.DistrictID] = p
		}
	}

	owners := newUserCache(e.store)
	var updated []*District
	for _, d := range districts {
		pol := byDistrict[d.ID]
		if pol == nil {
			continue
		}
		owner := owners.get(ctx, d.OwnerID)
		if owner == nil {
			continue
		}
		mul := QuantizeMultiplier(IdeologyMultiplier(owner.Ideology, pol.Ideology))
		if diff := d.ResourceMultiplier - mul; diff > 1e-6 || diff < -1e-6 {
			e.log.Debug("district multiplier recalculated",
				zap.Int64("district_id", d.ID),
				zap.Float64("from", d.ResourceMultiplier),
				zap.Float64("to", mul),
			)
			d.ResourceMultiplier = mul
			updated = append(updated, d)
		}
	}

	if len(updated) > 0 {
		if err := e.store.SaveDistricts(ctx, updated...); err != nil {
			return err
		}
	}
	e.log.Info("resource multipliers recalculated", zap.Int("districts_updated", len(updated)))
	return nil
}
