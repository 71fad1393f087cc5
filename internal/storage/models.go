package storage

import "time"

// ActionRecord is one journal entry for an action that reached submission
type ActionRecord struct {
	ID         string
	Contract   string // raw 0:... format
	Action     string // menu name
	Kind       string // operation kind, e.g. change_state
	OpTag      uint32
	BodyHash   string // hex representation hash of the sent body
	ValueNano  uint64
	BaselineLt uint64
	Status     string
	Attempts   int
	Message    string
	CreatedAt  time.Time
}

// StatusCount is the number of journal entries with a given status
type StatusCount struct {
	Status string
	Count  int
}
