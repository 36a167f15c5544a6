package halts

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("halt not found")

// Halt is an ops-controlled switch that blocks trading on one pair.
type Halt struct {
	Pair      string    `json:"pair"`
	Halted    bool      `json:"halted"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
