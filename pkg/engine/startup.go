package engine

// aggregateStartupCosts partitions startup costs by classification and sums
// each partition. Items with an unknown classification are not counted.
func aggregateStartupCosts(items []StartupCostLineItem) StartupTotals {
	var totals StartupTotals
	for _, item := range items {
		switch item.CapexClassification {
		case ClassificationCapex:
			totals.Capex += item.Amount
		case ClassificationNonCapex:
			totals.NonCapex += item.Amount
		case ClassificationWorkingCapital:
			totals.WorkingCapital += item.Amount
		}
	}
	totals.Total = totals.Capex + totals.NonCapex + totals.WorkingCapital
	return totals
}
