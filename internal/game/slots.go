package game

import (
	"context"

	"go.uber.org/zap"
)

// refreshActionSlots restores every user's consumable action slots to
// their maximum and stamps the refresh time.
func (e *Engine) refreshActionSlots(ctx context.Context, cc *CycleContext) error {
	users, err := e.store.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		e.log.Info("no users, slot refresh skipped")
		return nil
	}

	var refreshed []*User
	for _, u := range users {
		if u.AvailableActions >= u.MaxAvailableActions {
			continue
		}
		u.AvailableActions = u.MaxAvailableActions
		u.ActionsRefreshAt = cc.StartedAt
		refreshed = append(refreshed, u)
	}

	if len(refreshed) > 0 {
		if err := e.store.SaveUsers(ctx, refreshed...); err != nil {
			return err
		}
	}
	e.log.Info("action slots refreshed", zap.Int("users", len(refreshed)))
	return nil
}
