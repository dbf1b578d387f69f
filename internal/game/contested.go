package game

import (
	"context"

	"go.uber.org/zap"
)

// detectContested flags districts under personal dispute. A contested
// district is excluded from defense pooling, attack resolution, leftover
// conversion and resource grants for the whole cycle; its pending
// on-point actions stay PENDING and are handed to the duel resolver.
//
// The rule is a configurable policy: PolicyOnPointClash requires a
// simultaneous on-point attack and on-point defense, PolicyMultipleClaims
// additionally flags districts with two or more on-point attacks.
// Detection only reads pending actions, so running it twice over an
// unchanged action set yields the same district set.
func (e *Engine) detectContested(ctx context.Context) (map[int64]bool, error) {
	onPoint := true
	attacks, err := e.store.Actions(ctx, ActionFilter{
		Status:       StatusPending,
		Kind:         KindAttack,
		OnPoint:      &onPoint,
		WithDistrict: true,
	})
	if err != nil {
		return nil, err
	}
	defenses, err := e.store.Actions(ctx, ActionFilter{
		Status:       StatusPending,
		Kind:         KindDefense,
		OnPoint:      &onPoint,
		WithDistrict: true,
	})
	if err != nil {
		return nil, err
	}

	attackCount := make(map[int64]int)
	for _, a := range attacks {
		attackCount[a.DistrictID]++
	}
	defended := make(map[int64]bool)
	for _, d := range defenses {
		defended[d.DistrictID] = true
	}

	contested := make(map[int64]bool)
	for districtID, n := range attackCount {
		if defended[districtID] {
			contested[districtID] = true
			continue
		}
		if e.opts.ContestedPolicy == PolicyMultipleClaims && n >= 2 {
			contested[districtID] = true
		}
	}

	ids := make([]int64, 0, len(contested))
	for id := range contested {
		ids = append(ids, id)
	}
	e.log.Info("contested districts detected",
		zap.String("policy", string(e.opts.ContestedPolicy)),
		zap.Int64s("district_ids", ids),
	)
	return contested, nil
}
