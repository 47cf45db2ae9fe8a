package domain

import "github.com/google/uuid"

// NewClientOrderID mints a fresh UUID-shaped client order id. Strategies
// and the manual command path both go through this so every OrderKey in
// the system is generated the same way.
func NewClientOrderID() ClientOrderID {
	return ClientOrderID(uuid.New().String())
}
