package game

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// resolveAttacks consumes the per-district defense pool against pending
// attacks. Attacks are grouped by district and processed sequentially in
// creation order (configurable to newest-first); a breach reassigns
// ownership and its surplus becomes the district's running defense for
// the remaining attacks this cycle. Every processed attack is closed
// DONE regardless of outcome; attacks at missing districts are closed
// with a warning and no effect. The final running defense is written
// back into the pool for leftover conversion.
func (e *Engine) resolveAttacks(ctx context.Context, cc *CycleContext, pool map[int64]int, contested map[int64]bool) error {
	attacks, err := e.store.Actions(ctx, ActionFilter{
		Status:       StatusPending,
		Kind:         KindAttack,
		WithDistrict: true,
	})
	if err != nil {
		return err
	}
	e.log.Info("pending attack actions found", zap.Int("count", len(attacks)))
	if len(attacks) == 0 {
		return nil
	}

	sort.SliceStable(attacks, func(i, j int) bool {
		a, b := attacks[i], attacks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if e.opts.AttacksOldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	byDistrict := make(map[int64][]*Action)
	var order []int64
	for _, a := range attacks {
		if _, seen := byDistrict[a.DistrictID]; !seen {
			order = append(order, a.DistrictID)
		}
		byDistrict[a.DistrictID] = append(byDistrict[a.DistrictID], a)
	}

	users := newUserCache(e.store)
	var (
		processed        []int64
		ownershipChanges int
	)

	for _, districtID := range order {
		group := byDistrict[districtID]
		if contested[districtID] {
			e.log.Info("district contested, attacks skipped",
				zap.Int64("district_id", districtID),
				zap.Int("attacks", len(group)),
			)
			continue
		}

		d, err := e.store.DistrictByID(ctx, districtID)
		if err != nil {
			return err
		}
		if d == nil {
			e.log.Warn("district not found, attacks closed without effect",
				zap.Int64("district_id", districtID),
				zap.Int("attacks", len(group)),
			)
			for _, a := range group {
				processed = append(processed, a.ID)
			}
			continue
		}

		currentDefense := pool[districtID]
		e.log.Info("resolving attacks on district",
			zap.String("district", d.Name),
			zap.Int("starting_defense", currentDefense),
			zap.Int("attacks", len(group)),
		)

		for _, a := range group {
			pts := PointsFor(KindAttack, a, e.rates)
			attacker := users.get(ctx, a.OwnerID)
			defender := users.get(ctx, d.OwnerID)

			if pts <= currentDefense {
				currentDefense -= pts
				e.attackRepelled(ctx, d, a, attacker, defender, pts, currentDefense)
			} else {
				overflow := pts - currentDefense
				if err := e.store.ReassignDistrictOwner(ctx, d.ID, a.OwnerID); err != nil {
					return fmt.Errorf("reassigning district %d: %w", d.ID, err)
				}
				d.OwnerID = a.OwnerID
				currentDefense = overflow
				ownershipChanges++
				e.districtCaptured(ctx, d, a, attacker, defender, pts, overflow)
			}
			processed = append(processed, a.ID)
		}

		pool[districtID] = currentDefense
		e.log.Info("district attacks resolved",
			zap.String("district", d.Name),
			zap.Int("remaining_defense", currentDefense),
		)
	}

	if len(processed) > 0 {
		if err := e.store.CloseActions(ctx, StatusDone, processed...); err != nil {
			return err
		}
	}
	e.log.Info("attack resolution complete",
		zap.Int("attacks_closed", len(processed)),
		zap.Int("ownership_changes", ownershipChanges),
	)
	return nil
}

func (e *Engine) attackRepelled(ctx context.Context, d *District, a *Action, attacker, defender *User, pts, remaining int) {
	e.record(ctx, NewsEntry{
		Title: fmt.Sprintf("Attack on district %q repelled", d.Name),
		Body: fmt.Sprintf(
			"An attack by %s (%d points) was repelled. Attacker faction: %s. The district's defense now stands at %d.",
			attacker.DisplayName(), pts, attacker.FactionName(), remaining,
		),
		ActionID:   a.ID,
		DistrictID: d.ID,
	})

	if attacker != nil {
		e.notifier.Notify(ctx, attacker.ID,
			"Attack repelled",
			fmt.Sprintf("District %q holds. Your points: %d. Remaining defense: %d.", d.Name, pts, remaining),
		)
	}
	if defender != nil {
		e.notifier.Notify(ctx, defender.ID,
			"Attack repelled",
			fmt.Sprintf("Your district %q repelled an attack of %d points. Current defense: %d.", d.Name, pts, remaining),
		)
	}
}

func (e *Engine) districtCaptured(ctx context.Context, d *District, a *Action, attacker, formerOwner *User, pts, overflow int) {
	e.record(ctx, NewsEntry{
		Title: fmt.Sprintf("District %q captured", d.Name),
		Body: fmt.Sprintf(
			"An attack by %s (%d points) broke through the district's defense. Capturing faction: %s. New owner: %s. The remaining %d points reinforce the district.",
			attacker.DisplayName(), pts, attacker.FactionName(), attacker.DisplayName(), overflow,
		),
		ActionID:   a.ID,
		DistrictID: d.ID,
	})

	if attacker != nil {
		e.notifier.Notify(ctx, attacker.ID,
			"District captured",
			fmt.Sprintf("You captured district %q with %d points. The remaining %d became its defense.", d.Name, pts, overflow),
		)
	}
	if formerOwner != nil {
		e.notifier.Notify(ctx, formerOwner.ID,
			"District lost",
			fmt.Sprintf("Your district %q has been lost.", d.Name),
		)
	}
}

// userCache memoizes user lookups within a phase. Lookup failures are
// treated as missing users; callers handle nil.
type userCache struct {
	store Store
	users map[int64]*User
}

func newUserCache(store Store) *userCache {
	return &userCache{store: store, users: make(map[int64]*User)}
}

func (c *userCache) get(ctx context.Context, id int64) *User {
	if id == 0 {
		return nil
	}
	if u, ok := c.users[id]; ok {
		return u
	}
	u, err := c.store.UserByID(ctx, id)
	if err != nil {
		return nil
	}
	c.users[id] = u
	return u
}
