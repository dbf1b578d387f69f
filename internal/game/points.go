package game

// PointsFor converts an action's resources into combat points using the
// weight table for the given kind. Negative resource components count as
// zero; the weighted sum is rounded half-up, the on-point bonus is added
// when set, and the result is floored at 0. Pure and deterministic.
func PointsFor(kind string, action *Action, rates *CombatRates) int {
	table := rates.Table(kind)

	res := action.Resources.Clamped()
	pts := float64(res.Force)*table["force"] +
		float64(res.Money)*table["money"] +
		float64(res.Influence)*table["influence"] +
		float64(res.Information)*table["information"]

	total := int(roundHalfUp(pts))
	if action.OnPoint {
		total += rates.OnPointBonus
	}
	if total < 0 {
		return 0
	}
	return total
}
