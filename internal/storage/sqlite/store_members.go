package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"prizedraw/internal/models"
	"prizedraw/internal/storage"
)

const memberColumns = `id, badge_id, first_name, last_name, organization, email, eligible, won, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (models.Member, error) {
	var (
		m         models.Member
		createdAt int64
	)
	if err := row.Scan(
		&m.ID,
		&m.BadgeID,
		&m.FirstName,
		&m.LastName,
		&m.Organization,
		&m.Email,
		&m.Eligible,
		&m.Won,
		&createdAt,
	); err != nil {
		return models.Member{}, err
	}
	m.CreatedAt = fromMillis(createdAt)
	return m, nil
}

// InsertMembers adds members in one transaction. A badge id that already
// exists, or repeats within the batch, is skipped without touching the stored
// row.
func (s *Store) InsertMembers(ctx context.Context, members []models.Member) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert members: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO members (
		   badge_id,
		   first_name,
		   last_name,
		   organization,
		   email,
		   eligible,
		   won,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, 1, 0, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert member: %w", err)
	}
	defer stmt.Close()

	createdAt := toMillis(s.now())
	added := 0
	for _, m := range members {
		badgeID := strings.TrimSpace(m.BadgeID)
		if badgeID == "" {
			return 0, fmt.Errorf("badge id is required")
		}
		_, err := stmt.ExecContext(ctx,
			badgeID,
			strings.TrimSpace(m.FirstName),
			strings.TrimSpace(m.LastName),
			strings.TrimSpace(m.Organization),
			strings.TrimSpace(m.Email),
			createdAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return 0, fmt.Errorf("insert member %s: %w", badgeID, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert members: %w", err)
	}
	return added, nil
}

// GetMember returns one member by badge id.
func (s *Store) GetMember(ctx context.Context, badgeID string) (models.Member, error) {
	if err := s.ready(ctx); err != nil {
		return models.Member{}, err
	}
	m, err := scanMember(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE badge_id = ?`, strings.TrimSpace(badgeID)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns the whole roster ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	return s.queryMembers(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY last_name, first_name, badge_id`)
}

// ListEligibleMembers returns members that may currently be drawn.
func (s *Store) ListEligibleMembers(ctx context.Context) ([]models.Member, error) {
	return s.queryMembers(ctx,
		`SELECT `+memberColumns+` FROM members WHERE eligible = 1 ORDER BY id`)
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]models.Member, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// MemberStats counts the roster by drawing state.
func (s *Store) MemberStats(ctx context.Context) (models.RosterStats, error) {
	if err := s.ready(ctx); err != nil {
		return models.RosterStats{}, err
	}
	var stats models.RosterStats
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(eligible), 0),
		        COALESCE(SUM(won), 0)
		   FROM members`).Scan(&stats.Total, &stats.Eligible, &stats.Won)
	if err != nil {
		return models.RosterStats{}, fmt.Errorf("member stats: %w", err)
	}
	return stats, nil
}

// PurgeMembersByPrefix deletes members whose badge id starts with prefix,
// along with their audit entries. The match is case-sensitive.
func (s *Store) PurgeMembersByPrefix(ctx context.Context, prefix string) (storage.PurgeResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PurgeResult{}, err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return storage.PurgeResult{}, fmt.Errorf("purge prefix is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.PurgeResult{}, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result storage.PurgeResult
	res, err := tx.ExecContext(ctx,
		`DELETE FROM audit_entries
		  WHERE badge_id IN (SELECT badge_id FROM members WHERE substr(badge_id, 1, length(?)) = ?)`,
		prefix, prefix)
	if err != nil {
		return storage.PurgeResult{}, fmt.Errorf("purge audit entries: %w", err)
	}
	if result.AuditEntriesDeleted, err = res.RowsAffected(); err != nil {
		return storage.PurgeResult{}, fmt.Errorf("purge audit entries: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM members WHERE substr(badge_id, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		return storage.PurgeResult{}, fmt.Errorf("purge members: %w", err)
	}
	if result.MembersDeleted, err = res.RowsAffected(); err != nil {
		return storage.PurgeResult{}, fmt.Errorf("purge members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.PurgeResult{}, fmt.Errorf("commit purge: %w", err)
	}
	return result, nil
}
