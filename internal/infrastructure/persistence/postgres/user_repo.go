package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// Progress state is one row per user. Skills, earned badges and completed
// courses ride along as JSONB documents: they are only ever read and written
// with the whole state, never queried independently.
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create stores a new progress state.
func (r *UserRepository) Create(ctx context.Context, state *user.ProgressState) error {
	query := `
		INSERT INTO progress_states (
			user_id, current_xp, streak_current, streak_longest, streak_last_activity,
			skills, badges_earned, completed_courses, gigs_completed,
			rating_average, rating_count, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	skillsJSON, badgesJSON, coursesJSON, err := marshalStateDocs(state)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		state.UserID,
		int(state.CurrentXP),
		state.Streak.Current,
		state.Streak.Longest,
		nullableTime(state.Streak.LastActivityDate),
		skillsJSON,
		badgesJSON,
		coursesJSON,
		state.GigsCompleted,
		state.Rating.Average,
		state.Rating.Count,
		state.Version,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.Conflictf("progression", "Create",
				"progress state for user %s already exists", state.UserID)
		}
		return fmt.Errorf("failed to create progress state: %w", err)
	}

	return nil
}

// GetByID returns the progress state for a user.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*user.ProgressState, error) {
	query := `
		SELECT user_id, current_xp, streak_current, streak_longest, streak_last_activity,
			   skills, badges_earned, completed_courses, gigs_completed,
			   rating_average, rating_count, version, created_at, updated_at
		FROM progress_states
		WHERE user_id = $1
	`

	row := r.conn.QueryRow(ctx, query, userID)
	return scanProgressState(row, userID)
}

// Update persists a mutated state with a compare-and-swap on the version the
// state was loaded with. The version bump happens here, not in the caller.
func (r *UserRepository) Update(ctx context.Context, state *user.ProgressState) error {
	query := `
		UPDATE progress_states SET
			current_xp = $1,
			streak_current = $2,
			streak_longest = $3,
			streak_last_activity = $4,
			skills = $5,
			badges_earned = $6,
			completed_courses = $7,
			gigs_completed = $8,
			rating_average = $9,
			rating_count = $10,
			version = version + 1,
			updated_at = $11
		WHERE user_id = $12 AND version = $13
	`

	skillsJSON, badgesJSON, coursesJSON, err := marshalStateDocs(state)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		int(state.CurrentXP),
		state.Streak.Current,
		state.Streak.Longest,
		nullableTime(state.Streak.LastActivityDate),
		skillsJSON,
		badgesJSON,
		coursesJSON,
		state.GigsCompleted,
		state.Rating.Average,
		state.Rating.Count,
		time.Now().UTC(),
		state.UserID,
		state.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("progression", "Update", shared.ErrOptimisticLock,
			"progress state version moved for user "+state.UserID)
	}

	state.Version++
	return nil
}

// AppendXPHistory records a single XP change.
func (r *UserRepository) AppendXPHistory(ctx context.Context, entry user.XPHistoryEntry) error {
	query := `
		INSERT INTO xp_history (user_id, old_xp, new_xp, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.UserID,
		int(entry.OldXP),
		int(entry.NewXP),
		entry.Delta,
		entry.Reason,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append xp history: %w", err)
	}

	return nil
}

// GetXPHistory returns the most recent XP changes, newest first.
func (r *UserRepository) GetXPHistory(ctx context.Context, userID string, limit int) ([]user.XPHistoryEntry, error) {
	query := `
		SELECT user_id, old_xp, new_xp, delta, reason, created_at
		FROM xp_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get xp history: %w", err)
	}
	defer rows.Close()

	var entries []user.XPHistoryEntry
	for rows.Next() {
		var entry user.XPHistoryEntry
		var oldXP, newXP int

		if err := rows.Scan(&entry.UserID, &oldXP, &newXP, &entry.Delta, &entry.Reason, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan xp history entry: %w", err)
		}

		entry.OldXP = user.XP(oldXP)
		entry.NewXP = user.XP(newXP)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Projection rebuilds
// ─────────────────────────────────────────────────────────────────────────────

// CountEarnedBadges aggregates how many users earned each badge, for the
// counter reconcile sweep.
func (r *UserRepository) CountEarnedBadges(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT b->>'badge_id' AS badge_id, COUNT(*)
		FROM progress_states, jsonb_array_elements(badges_earned) AS b
		GROUP BY 1
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count earned badges: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var badgeID string
		var count int64
		if err := rows.Scan(&badgeID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan badge count: %w", err)
		}
		counts[badgeID] = count
	}

	return counts, rows.Err()
}

// ListXPTotals returns every user's current XP, for the leaderboard rebuild.
func (r *UserRepository) ListXPTotals(ctx context.Context) (map[string]user.XP, error) {
	rows, err := r.conn.Query(ctx, "SELECT user_id, current_xp FROM progress_states")
	if err != nil {
		return nil, fmt.Errorf("failed to list xp totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]user.XP)
	for rows.Next() {
		var userID string
		var xp int
		if err := rows.Scan(&userID, &xp); err != nil {
			return nil, fmt.Errorf("failed to scan xp total: %w", err)
		}
		totals[userID] = user.XP(xp)
	}

	return totals, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type skillDoc struct {
	Name     string `json:"name"`
	Level    string `json:"level"`
	Verified bool   `json:"verified"`
}

type earnedBadgeDoc struct {
	BadgeID  string    `json:"badge_id"`
	CourseID string    `json:"course_id,omitempty"`
	EarnedAt time.Time `json:"earned_at"`
}

func marshalStateDocs(state *user.ProgressState) (skills, badges, courses []byte, err error) {
	skillDocs := make([]skillDoc, 0, len(state.Skills))
	for _, s := range state.Skills {
		skillDocs = append(skillDocs, skillDoc{
			Name:     s.Name,
			Level:    string(s.Level),
			Verified: s.Verified,
		})
	}
	if skills, err = json.Marshal(skillDocs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal skills: %w", err)
	}

	badgeDocs := make([]earnedBadgeDoc, 0, len(state.BadgesEarned))
	for _, b := range state.BadgesEarned {
		badgeDocs = append(badgeDocs, earnedBadgeDoc{
			BadgeID:  b.BadgeID,
			CourseID: b.CourseID,
			EarnedAt: b.EarnedAt,
		})
	}
	if badges, err = json.Marshal(badgeDocs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal badges: %w", err)
	}

	completed := state.CompletedCourses
	if completed == nil {
		completed = []string{}
	}
	if courses, err = json.Marshal(completed); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal completed courses: %w", err)
	}

	return skills, badges, courses, nil
}

func scanProgressState(row pgx.Row, userID string) (*user.ProgressState, error) {
	var state user.ProgressState
	var currentXP int
	var lastActivity *time.Time
	var skillsJSON, badgesJSON, coursesJSON []byte

	err := row.Scan(
		&state.UserID,
		&currentXP,
		&state.Streak.Current,
		&state.Streak.Longest,
		&lastActivity,
		&skillsJSON,
		&badgesJSON,
		&coursesJSON,
		&state.GigsCompleted,
		&state.Rating.Average,
		&state.Rating.Count,
		&state.Version,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.NewDomainError("progression", "GetByID",
			shared.ErrNotFound, "no progress state for user "+userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress state: %w", err)
	}

	state.CurrentXP = user.XP(currentXP)
	if lastActivity != nil {
		state.Streak.LastActivityDate = lastActivity.UTC()
	}

	var skillDocs []skillDoc
	if err := json.Unmarshal(skillsJSON, &skillDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
	}
	for _, d := range skillDocs {
		state.Skills = append(state.Skills, user.Skill{
			Name:     d.Name,
			Level:    shared.SkillLevel(d.Level),
			Verified: d.Verified,
		})
	}

	var badgeDocs []earnedBadgeDoc
	if err := json.Unmarshal(badgesJSON, &badgeDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	for _, d := range badgeDocs {
		state.BadgesEarned = append(state.BadgesEarned, user.EarnedBadge{
			BadgeID:  d.BadgeID,
			CourseID: d.CourseID,
			EarnedAt: d.EarnedAt,
		})
	}

	if err := json.Unmarshal(coursesJSON, &state.CompletedCourses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed courses: %w", err)
	}

	return &state, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
