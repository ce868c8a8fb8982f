// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single goal-seek over one plan field.
// Currency amounts are cents.
type Summary struct {
	Field     string  `json:"field"`
	Objective string  `json:"objective"`
	Original  float64 `json:"original"`
	Value     float64 `json:"value"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`

	// Floor is the cash floor in cents, or the break-even deadline in months.
	Floor float64 `json:"floor"`
	// Achieved is the lowest cash position in cents, or the break-even month
	// (0 when the projection never breaks even).
	Achieved   float64  `json:"achieved"`
	Headroom   float64  `json:"headroom"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
	Notes      []string `json:"notes,omitempty"`
}
