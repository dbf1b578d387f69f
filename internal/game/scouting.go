package game

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// closeScouting closes every pending scout action, clears all
// user-district observation relationships, and tells each previously
// observing user which districts they had been watching.
func (e *Engine) closeScouting(ctx context.Context) error {
	watches, err := e.store.ScoutWatches(ctx)
	if err != nil {
		return err
	}
	watched := make(map[int64][]int64)
	for _, w := range watches {
		watched[w.UserID] = append(watched[w.UserID], w.DistrictID)
	}
	e.log.Info("observation relationships before reset", zap.Int("count", len(watches)))

	scouts, err := e.store.Actions(ctx, ActionFilter{
		Status: StatusPending,
		Kinds:  ScoutKinds,
	})
	if err != nil {
		return err
	}
	if len(scouts) > 0 {
		ids := make([]int64, len(scouts))
		for i, a := range scouts {
			ids[i] = a.ID
		}
		if err := e.store.CloseActions(ctx, StatusDone, ids...); err != nil {
			return err
		}
		e.log.Info("scouting actions closed", zap.Int("count", len(ids)))
	}

	if err := e.store.ClearScoutWatches(ctx); err != nil {
		return err
	}

	if len(watched) == 0 {
		return nil
	}

	names := make(map[int64]string)
	districts, err := e.store.Districts(ctx)
	if err != nil {
		return err
	}
	for _, d := range districts {
		names[d.ID] = d.Name
	}

	for userID, districtIDs := range watched {
		var lines []string
		for _, id := range districtIDs {
			name := names[id]
			if name == "" {
				name = fmt.Sprintf("district #%d", id)
			}
			lines = append(lines, "- "+name)
		}
		body := "Scouting has concluded and observations have been reset.\n\n" +
			"Districts you had been watching:\n" + strings.Join(lines, "\n") +
			"\n\nStart a new scouting run to keep watching."
		e.notifier.Notify(ctx, userID, "Scouting concluded", body)
	}
	return nil
}
