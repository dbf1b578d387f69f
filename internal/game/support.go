package game

import (
	"context"

	"go.uber.org/zap"
)

// aggregateSupports folds every pending SUPPORT action into its parent's
// resource totals. Supports whose parent is missing or no longer pending
// forfeit their resources; the supports themselves are closed DONE in
// all cases, so a support is consumed exactly once per cycle.
func (e *Engine) aggregateSupports(ctx context.Context) error {
	supports, err := e.store.Actions(ctx, ActionFilter{
		Status:     StatusPending,
		Type:       TypeSupport,
		WithParent: true,
	})
	if err != nil {
		return err
	}
	e.log.Info("pending support actions found", zap.Int("count", len(supports)))
	if len(supports) == 0 {
		return nil
	}

	byParent := make(map[int64][]*Action)
	for _, s := range supports {
		byParent[s.ParentID] = append(byParent[s.ParentID], s)
	}

	var (
		closed  []int64
		parents []*Action
	)
	for parentID, group := range byParent {
		parent, err := e.store.ActionByID(ctx, parentID)
		if err != nil {
			return err
		}
		if parent == nil || parent.Status != StatusPending {
			for _, s := range group {
				closed = append(closed, s.ID)
			}
			e.log.Debug("support parent missing or closed, resources forfeited",
				zap.Int64("parent_id", parentID),
				zap.Int("supports", len(group)),
			)
			continue
		}

		var total Resources
		for _, s := range group {
			total = total.Add(s.Resources.Clamped())
			closed = append(closed, s.ID)
		}
		parent.Resources = parent.Resources.Add(total)
		parents = append(parents, parent)

		e.log.Debug("support resources aggregated into parent",
			zap.Int64("parent_id", parentID),
			zap.Int("supports", len(group)),
			zap.Int("force", total.Force),
			zap.Int("money", total.Money),
			zap.Int("influence", total.Influence),
			zap.Int("information", total.Information),
		)
	}

	if len(parents) > 0 {
		if err := e.store.SaveActions(ctx, parents...); err != nil {
			return err
		}
	}
	if len(closed) > 0 {
		if err := e.store.CloseActions(ctx, StatusDone, closed...); err != nil {
			return err
		}
	}

	e.log.Info("support aggregation complete",
		zap.Int("supports_closed", len(closed)),
		zap.Int("parents_touched", len(parents)),
	)
	return nil
}
