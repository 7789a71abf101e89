// Package journal persists the plan edit journal: one row per committed
// assignment operation, keyed by plan and map version, so a session's edits
// can be listed, audited, and exported after the fact.
package journal

import (
	"context"
	"time"
)

// Kind names one journaled operation.
type Kind string

const (
	KindAssign        Kind = "assign"
	KindNewDistrict   Kind = "newdistrict"
	KindLock          Kind = "lock"
	KindCombine       Kind = "combine"
	KindFixUnassigned Kind = "fixunassigned"
	KindUndo          Kind = "undo"
	KindRedo          Kind = "redo"
)

// Entry is one committed edit against a plan.
type Entry struct {
	ID            string    `json:"id" yaml:"id"`
	Plan          string    `json:"plan" yaml:"plan"`
	Kind          Kind      `json:"kind" yaml:"kind"`
	District      int       `json:"district" yaml:"district"`
	Units         int       `json:"units" yaml:"units"`
	VersionBefore int       `json:"version_before" yaml:"version_before"`
	VersionAfter  int       `json:"version_after" yaml:"version_after"`
	Message       string    `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Filter specifies criteria for listing entries.
type Filter struct {
	Plan   string `json:"plan,omitempty"`
	Kind   Kind   `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the edit journal.
type Store interface {
	Record(ctx context.Context, e Entry) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
