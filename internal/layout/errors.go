package layout

import "fmt"

// LayoutOverflowError is returned when a column cannot hold its nodes at
// the configured band height and padding.
type LayoutOverflowError struct {
	Column    int
	Count     int
	Required  float64
	Available float64
}

func (e *LayoutOverflowError) Error() string {
	return fmt.Sprintf("layout overflow: column %d needs %.1f px for %d nodes, %.1f available",
		e.Column, e.Required, e.Count, e.Available)
}
