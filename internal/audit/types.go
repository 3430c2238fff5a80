package audit

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// Entry is one row of the bus audit trail.
type Entry struct {
	ID        string      `json:"id"`
	Op        bus.Op      `json:"op"`
	Outcome   bus.Outcome `json:"outcome"`
	DeviceID  int         `json:"device_id"`
	Address   int         `json:"address"`
	Data      int         `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// EntryFromEvent converts a bus event into an audit entry.
func EntryFromEvent(ev bus.Event) *Entry {
	return &Entry{
		Op:        ev.Op,
		Outcome:   ev.Outcome,
		DeviceID:  ev.DeviceID,
		Address:   ev.Address,
		Data:      ev.Data,
		CreatedAt: ev.Time,
	}
}

// Filter controls which entries List returns.
type Filter struct {
	DeviceID *int        // optional: only this device
	Op       bus.Op      // optional: add, write, read, remove
	Outcome  bus.Outcome // optional: ok, not_found, ...
	Limit    int         // default 50, max 200
	Offset   int
}

// Device returns a pointer suitable for Filter.DeviceID.
func Device(id int) *int {
	return &id
}

// ListResult contains one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the interface for audit storage.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}
