package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CardRecord is a persisted profession card. The body is opaque JSON; the
// identity columns are duplicated so listing does not decode it.
type CardRecord struct {
	Slug        string
	Profession  string
	Level       string
	Company     string
	DataJSON    string
	GeneratedAt time.Time
	UpdatedAt   time.Time
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
