package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/logger"

	"prizedraw/internal/models"
	"prizedraw/internal/storage"
)

const (
	// ResetConfirmation must be typed by the operator to reset the drawing.
	ResetConfirmation = "reset"
	// TestDataPrefix marks badge ids created for rehearsals.
	TestDataPrefix = "TEST"
)

var (
	ErrEmptyPool            = errors.New("no eligible members left to draw from")
	ErrUnknownMember        = errors.New("member not found")
	ErrConfirmationMismatch = errors.New("confirmation text did not match")
	ErrInvalidOutcome       = errors.New("invalid outcome")
)

// DrawingService runs the prize drawing against a roster store.
type DrawingService struct {
	store storage.Store
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a DrawingService.
type Option func(*DrawingService)

// WithRandSource makes draws use src instead of the global generator.
func WithRandSource(src rand.Source) Option {
	return func(s *DrawingService) {
		s.rng = rand.New(src)
	}
}

// WithClock sets the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *DrawingService) {
		s.now = now
	}
}

// NewDrawingService creates a DrawingService backed by store.
func NewDrawingService(store storage.Store, opts ...Option) *DrawingService {
	s := &DrawingService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportMembers adds the members listed in a roster CSV. Rows whose badge id
// is already on the roster are skipped and the stored member is not changed.
func (s *DrawingService) ImportMembers(ctx context.Context, r io.Reader) (models.ImportSummary, error) {
	members, summary, err := parseRoster(r)
	if err != nil {
		return models.ImportSummary{}, err
	}
	added, err := s.store.InsertMembers(ctx, members)
	if err != nil {
		return models.ImportSummary{}, fmt.Errorf("import members: %w", err)
	}
	summary.Added = added
	summary.SkippedExisting = len(members) - added

	logger.Infof("Imported roster: added=%d existing=%d non-members=%d malformed=%d",
		summary.Added, summary.SkippedExisting, summary.SkippedNonMember, len(summary.Malformed))
	for _, row := range summary.Malformed {
		logger.Warningf("Skipped roster line %d: %s", row.Line, row.Reason)
	}
	return summary, nil
}

// Draw picks one eligible member uniformly at random. Nothing is written:
// the returned PendingDraw must be passed to Resolve to take effect.
func (s *DrawingService) Draw(ctx context.Context) (models.PendingDraw, error) {
	eligible, err := s.store.ListEligibleMembers(ctx)
	if err != nil {
		return models.PendingDraw{}, fmt.Errorf("list eligible members: %w", err)
	}
	if len(eligible) == 0 {
		return models.PendingDraw{}, ErrEmptyPool
	}

	winner := eligible[s.intN(len(eligible))]
	logger.Infof("Drew %s (%s) from %d eligible members", winner.BadgeID, winner.FullName(), len(eligible))
	return models.PendingDraw{
		BadgeID:      winner.BadgeID,
		FirstName:    winner.FirstName,
		LastName:     winner.LastName,
		Organization: winner.Organization,
		DrawnAt:      s.now().UTC(),
	}, nil
}

func (s *DrawingService) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Resolve records the outcome of a draw for the member with badgeID.
// Resolving the same draw twice records it twice.
func (s *DrawingService) Resolve(ctx context.Context, badgeID string, outcome models.Outcome) (models.AuditEntry, error) {
	if !outcome.Valid() {
		return models.AuditEntry{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	entry, err := s.store.ResolveDraw(ctx, badgeID, outcome, s.now())
	if errors.Is(err, storage.ErrNotFound) {
		return models.AuditEntry{}, fmt.Errorf("%w: %s", ErrUnknownMember, badgeID)
	}
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("resolve draw: %w", err)
	}
	logger.Infof("Resolved %s (%s) as %s", entry.BadgeID, entry.FullName(), entry.Outcome)
	return entry, nil
}

// AuditLog returns every recorded outcome, newest first.
func (s *DrawingService) AuditLog(ctx context.Context) ([]models.AuditEntry, error) {
	entries, err := s.store.ListAuditEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return entries, nil
}

// LastClaimed returns the most recent member who claimed a prize.
func (s *DrawingService) LastClaimed(ctx context.Context) (*models.AuditEntry, error) {
	entry, ok, err := s.store.LatestClaim(ctx)
	if err != nil {
		return nil, fmt.Errorf("last claimed: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Stats returns roster counts.
func (s *DrawingService) Stats(ctx context.Context) (models.RosterStats, error) {
	stats, err := s.store.MemberStats(ctx)
	if err != nil {
		return models.RosterStats{}, fmt.Errorf("roster stats: %w", err)
	}
	return stats, nil
}

// Roster returns every member.
func (s *DrawingService) Roster(ctx context.Context) ([]models.Member, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return members, nil
}

// Reset clears the audit log and makes every member eligible again. The
// confirmation must equal ResetConfirmation exactly.
func (s *DrawingService) Reset(ctx context.Context, confirmation string) (storage.ResetResult, error) {
	if confirmation != ResetConfirmation {
		logger.Warningf("Reset rejected: confirmation text did not match")
		return storage.ResetResult{}, ErrConfirmationMismatch
	}
	result, err := s.store.ResetDrawings(ctx)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("reset drawings: %w", err)
	}
	logger.Infof("Reset drawings: %d audit entries deleted, %d members made eligible",
		result.AuditEntriesDeleted, result.MembersReset)
	return result, nil
}

// PurgeTestData removes rehearsal members (badge ids starting with
// TestDataPrefix) and their audit entries.
func (s *DrawingService) PurgeTestData(ctx context.Context) (storage.PurgeResult, error) {
	result, err := s.store.PurgeMembersByPrefix(ctx, TestDataPrefix)
	if err != nil {
		return storage.PurgeResult{}, fmt.Errorf("purge test data: %w", err)
	}
	logger.Infof("Purged %d test members and %d associated audit entries",
		result.MembersDeleted, result.AuditEntriesDeleted)
	return result, nil
}
