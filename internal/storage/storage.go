// Package storage defines the persistence contract for the roster and the
// drawing history.
package storage

import (
	"context"
	"errors"
	"time"

	"prizedraw/internal/models"
)

// ErrNotFound is returned when a requested member does not exist.
var ErrNotFound = errors.New("not found")

// ResetResult reports the effect of a full drawing reset.
type ResetResult struct {
	AuditEntriesDeleted int64
	MembersReset        int64
}

// PurgeResult reports the effect of a member purge.
type PurgeResult struct {
	MembersDeleted      int64
	AuditEntriesDeleted int64
}

// Store persists members and audit entries.
type Store interface {
	// InsertMembers inserts members whose badge id is not yet present and
	// returns how many rows were added. Existing members are left untouched.
	InsertMembers(ctx context.Context, members []models.Member) (int, error)
	GetMember(ctx context.Context, badgeID string) (models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	ListEligibleMembers(ctx context.Context) ([]models.Member, error)
	MemberStats(ctx context.Context) (models.RosterStats, error)

	// ResolveDraw applies outcome to the member and appends an audit entry in
	// one transaction. It returns ErrNotFound for an unknown badge id.
	ResolveDraw(ctx context.Context, badgeID string, outcome models.Outcome, at time.Time) (models.AuditEntry, error)
	// ListAuditEntries returns the history newest first.
	ListAuditEntries(ctx context.Context) ([]models.AuditEntry, error)
	// LatestClaim returns the most recent claimed entry, if any.
	LatestClaim(ctx context.Context) (models.AuditEntry, bool, error)

	ResetDrawings(ctx context.Context) (ResetResult, error)
	PurgeMembersByPrefix(ctx context.Context, prefix string) (PurgeResult, error)

	Close() error
}
