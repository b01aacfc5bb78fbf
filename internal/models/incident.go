package models

import (
	"time"
)

// LogEntry is one record of the control unit's incident log.
type LogEntry struct {
	ID        string    `bson:"_id" json:"id"`
	Message   string    `bson:"message" json:"message"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// StampLayout is the day-first layout used when printing incident times.
const StampLayout = "02/01/2006 15:04:05"

func (e LogEntry) Stamp() string {
	return e.Timestamp.Format(StampLayout)
}
