package sim

// realizedPL is the PnL of closing a long at exit.
func realizedPL(p Position, exit float64) float64 {
	return (exit - p.EntryPrice) * p.Quantity
}

// UnrealizedPL marks an open position to price.
func UnrealizedPL(p Position, price float64) float64 {
	if p.State != Long {
		return 0
	}
	return realizedPL(p, price)
}
