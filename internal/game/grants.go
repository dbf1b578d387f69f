package game

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// grantBaseResources adds each user's base rates to their balance. Base
// grants are unconditional and never multiplied. Recipients with a
// non-zero grant get a notification after the batch commits.
func (e *Engine) grantBaseResources(ctx context.Context) error {
	users, err := e.store.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		e.log.Info("no users, base grants skipped")
		return nil
	}

	type grant struct {
		userID int64
		delta  Resources
	}
	var (
		granted []*User
		grants  []grant
		totals  Resources
	)
	for _, u := range users {
		delta := u.Base.Clamped()
		if delta.IsZero() {
			continue
		}
		u.Balance = u.Balance.Add(delta)
		totals = totals.Add(delta)
		granted = append(granted, u)
		grants = append(grants, grant{userID: u.ID, delta: delta})
	}

	if len(granted) > 0 {
		if err := e.store.SaveUsers(ctx, granted...); err != nil {
			return err
		}
	}
	e.log.Info("base resources granted",
		zap.Int("recipients", len(granted)),
		zap.Int("money", totals.Money),
		zap.Int("influence", totals.Influence),
		zap.Int("information", totals.Information),
		zap.Int("force", totals.Force),
	)

	for _, g := range grants {
		e.notifier.Notify(ctx, g.userID,
			"Base resources granted",
			fmt.Sprintf(
				"You received your base resources:\nmoney %d\ninfluence %d\ninformation %d\nforce %d",
				g.delta.Money, g.delta.Influence, g.delta.Information, g.delta.Force,
			),
		)
	}
	return nil
}

// grantDistrictResources pays each district's effective resources to its
// owner, skipping contested districts. All districts owned by the same
// user aggregate into a single balance update and one notification with
// the per-district breakdown.
func (e *Engine) grantDistrictResources(ctx context.Context, contested map[int64]bool) error {
	districts, err := e.store.Districts(ctx)
	if err != nil {
		return err
	}
	if len(districts) == 0 {
		e.log.Info("no districts, district grants skipped")
		return nil
	}

	type districtShare struct {
		name  string
		yield Resources
	}
	perOwner := make(map[int64]Resources)
	breakdown := make(map[int64][]districtShare)
	var owners []int64
	for _, d := range districts {
		if contested[d.ID] {
			e.log.Debug("district contested, grant skipped", zap.Int64("district_id", d.ID))
			continue
		}
		eff := d.EffectiveResources()
		if _, seen := perOwner[d.OwnerID]; !seen {
			owners = append(owners, d.OwnerID)
		}
		perOwner[d.OwnerID] = perOwner[d.OwnerID].Add(eff)
		breakdown[d.OwnerID] = append(breakdown[d.OwnerID], districtShare{name: d.Name, yield: eff})
	}

	var (
		updated []*User
		totals  Resources
	)
	for _, ownerID := range owners {
		owner, err := e.store.UserByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			e.log.Warn("district owner not found, grant dropped", zap.Int64("user_id", ownerID))
			continue
		}
		delta := perOwner[ownerID]
		owner.Balance = owner.Balance.Add(delta)
		totals = totals.Add(delta)
		updated = append(updated, owner)
	}

	if len(updated) > 0 {
		if err := e.store.SaveUsers(ctx, updated...); err != nil {
			return err
		}
	}
	e.log.Info("district resources granted",
		zap.Int("owners", len(updated)),
		zap.Int("money", totals.Money),
		zap.Int("influence", totals.Influence),
		zap.Int("information", totals.Information),
		zap.Int("force", totals.Force),
	)

	for _, owner := range updated {
		delta := perOwner[owner.ID]
		if delta.Money+delta.Influence+delta.Information+delta.Force <= 0 {
			continue
		}
		var lines []string
		for _, share := range breakdown[owner.ID] {
			lines = append(lines, fmt.Sprintf(
				"%s: money %d, influence %d, information %d, force %d",
				share.name, share.yield.Money, share.yield.Influence, share.yield.Information, share.yield.Force,
			))
		}
		body := fmt.Sprintf(
			"Resources collected from your districts:\n%s\n\nTotal: money %d, influence %d, information %d, force %d",
			strings.Join(lines, "\n"), delta.Money, delta.Influence, delta.Information, delta.Force,
		)
		e.notifier.Notify(ctx, owner.ID, "District resources granted", body)
	}
	return nil
}
