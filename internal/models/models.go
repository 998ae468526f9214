package models

import (
	"time"

	"github.com/google/uuid"
)

// Command is one complete (rotation, duration) pair received from the command link.
type Command struct {
	Id         uuid.UUID
	Rotation   int
	DurationMs uint32
	Raw        string
	Received   time.Time
}

func (c Command) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

type Status struct {
	Heading   int
	Ranges    []uint16
	Load1     float64
	Load5     float64
	Load15    float64
	RxBytes   uint64
	TxBytes   uint64
	TimeStamp int64
}
