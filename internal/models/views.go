package models

import (
	"fmt"
	"time"
)

// SavedView is a named dashboard layout. Panels maps panel IDs to their chart
// configuration, in the order the dashboard renders them.
type SavedView struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	CreatedAt time.Time              `json:"created_at"`
	Panels    SerializableOrderedMap `json:"panels"`
}

func (v SavedView) String() string {
	return fmt.Sprintf("SavedView<ID: %s, Name: %s, Panels: %d>", v.ID, v.Name, v.Panels.Len())
}
