package model

import "time"

// Category represents a valid expense category. The taxonomy is supplied
// externally and may grow at runtime; this engine only stores it.
type Category struct {
	CreatedAt time.Time
	Name      string
	ID        int
	IsActive  bool
}
