package risk

import "math"

// PlannedRisk computes the absolute cash at risk if the stop is hit.
func PlannedRisk(quantity, entry, stop float64) float64 {
	return quantity * math.Abs(entry-stop)
}

// RR returns the reward multiple of a planned trade.
func RR(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(target - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RMultiple expresses a realised PnL in units of the planned risk.
func RMultiple(pnl, plannedRisk float64) float64 {
	if plannedRisk == 0 {
		return 0
	}
	return pnl / plannedRisk
}
