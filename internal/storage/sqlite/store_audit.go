package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"prizedraw/internal/models"
	"prizedraw/internal/storage"
)

const auditColumns = `id, badge_id, first_name, last_name, organization, outcome, recorded_at`

func scanAuditEntry(row rowScanner) (models.AuditEntry, error) {
	var (
		e          models.AuditEntry
		outcome    string
		recordedAt int64
	)
	if err := row.Scan(
		&e.ID,
		&e.BadgeID,
		&e.FirstName,
		&e.LastName,
		&e.Organization,
		&outcome,
		&recordedAt,
	); err != nil {
		return models.AuditEntry{}, err
	}
	e.Outcome = models.Outcome(outcome)
	e.RecordedAt = fromMillis(recordedAt)
	return e, nil
}

// ResolveDraw records the outcome for a drawn member. A claim marks the member
// as won and no longer eligible; a no-show leaves the member in the pool.
func (s *Store) ResolveDraw(ctx context.Context, badgeID string, outcome models.Outcome, at time.Time) (models.AuditEntry, error) {
	if err := s.ready(ctx); err != nil {
		return models.AuditEntry{}, err
	}
	if !outcome.Valid() {
		return models.AuditEntry{}, fmt.Errorf("unknown outcome %q", outcome)
	}
	badgeID = strings.TrimSpace(badgeID)
	if at.IsZero() {
		at = s.now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("begin resolve: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	member, err := scanMember(tx.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE badge_id = ?`, badgeID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuditEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("load member: %w", err)
	}

	if outcome == models.OutcomeClaimed {
		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET won = 1, eligible = 0 WHERE id = ?`, member.ID); err != nil {
			return models.AuditEntry{}, fmt.Errorf("mark member won: %w", err)
		}
	}

	entry := models.AuditEntry{
		BadgeID:      member.BadgeID,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		Organization: member.Organization,
		Outcome:      outcome,
		RecordedAt:   fromMillis(toMillis(at)),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_entries (
		   badge_id,
		   first_name,
		   last_name,
		   organization,
		   outcome,
		   recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.BadgeID,
		entry.FirstName,
		entry.LastName,
		entry.Organization,
		string(entry.Outcome),
		toMillis(entry.RecordedAt),
	)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("append audit entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return models.AuditEntry{}, fmt.Errorf("append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.AuditEntry{}, fmt.Errorf("commit resolve: %w", err)
	}
	return entry, nil
}

// ListAuditEntries returns every audit entry, newest first.
func (s *Store) ListAuditEntries(ctx context.Context) ([]models.AuditEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_entries ORDER BY recorded_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// LatestClaim returns the most recent claimed entry.
func (s *Store) LatestClaim(ctx context.Context) (models.AuditEntry, bool, error) {
	if err := s.ready(ctx); err != nil {
		return models.AuditEntry{}, false, err
	}
	e, err := scanAuditEntry(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audit_entries
		  WHERE outcome = ?
		  ORDER BY recorded_at DESC, id DESC
		  LIMIT 1`, string(models.OutcomeClaimed)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuditEntry{}, false, nil
	}
	if err != nil {
		return models.AuditEntry{}, false, fmt.Errorf("latest claim: %w", err)
	}
	return e, true, nil
}

// ResetDrawings clears the audit log and makes every member eligible again.
func (s *Store) ResetDrawings(ctx context.Context) (storage.ResetResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ResetResult{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result storage.ResetResult
	res, err := tx.ExecContext(ctx, `DELETE FROM audit_entries`)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("clear audit entries: %w", err)
	}
	if result.AuditEntriesDeleted, err = res.RowsAffected(); err != nil {
		return storage.ResetResult{}, fmt.Errorf("clear audit entries: %w", err)
	}

	res, err = tx.ExecContext(ctx, `UPDATE members SET eligible = 1, won = 0`)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("reset members: %w", err)
	}
	if result.MembersReset, err = res.RowsAffected(); err != nil {
		return storage.ResetResult{}, fmt.Errorf("reset members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.ResetResult{}, fmt.Errorf("commit reset: %w", err)
	}
	return result, nil
}
