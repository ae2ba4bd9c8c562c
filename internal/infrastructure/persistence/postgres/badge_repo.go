package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/badge"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE REPOSITORY IMPLEMENTATION
// Definitions are read-only here. Criteria are stored as a JSONB array of
// tagged documents and decoded into the sealed criterion variants; an unknown
// tag fails the read rather than silently skipping a rule.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRepository implements badge.Repository for PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

const badgeColumns = `
	id, name, description, rarity, criteria, prerequisites, xp_reward,
	available_from, available_until, active, hidden, course_scoped
`

// GetByID returns one badge definition.
func (r *BadgeRepository) GetByID(ctx context.Context, id string) (*badge.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	b, err := scanBadge(row)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("badge", "GetByID",
			shared.ErrNotFound, "badge "+id+" not found")
	}
	return b, err
}

// ListActive returns all active badge definitions.
func (r *BadgeRepository) ListActive(ctx context.Context) ([]*badge.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE active ORDER BY id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}

	return badges, rows.Err()
}

// ListReferencingCourse returns active badges whose criteria reference the
// given course. Course-scoped badges always qualify: any course can be their
// originating scope. The criteria documents have no fixed shape worth
// indexing, so the filter runs on the decoded definitions.
func (r *BadgeRepository) ListReferencingCourse(ctx context.Context, courseID string) ([]*badge.Badge, error) {
	active, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*badge.Badge
	for _, b := range active {
		if b.CourseScoped || referencesCourse(b, courseID) {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

func referencesCourse(b *badge.Badge, courseID string) bool {
	for _, c := range b.Criteria {
		if cc, ok := c.(badge.CourseCompletion); ok {
			if cc.CourseID == courseID || cc.CourseID == "" {
				return true
			}
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// criterionDoc is the stored form of one criterion. Kind selects the variant;
// the remaining fields are variant-specific and zero elsewhere.
type criterionDoc struct {
	Kind      string  `json:"kind"`
	CourseID  string  `json:"course_id,omitempty"`
	Count     int     `json:"count,omitempty"`
	Skill     string  `json:"skill,omitempty"`
	Level     string  `json:"level,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
	MinXP     int     `json:"min_xp,omitempty"`
	Days      int     `json:"days,omitempty"`
}

func decodeCriterion(d criterionDoc) (badge.Criterion, error) {
	switch badge.CriterionKind(d.Kind) {
	case badge.KindCourseCompletion:
		return badge.CourseCompletion{CourseID: d.CourseID, Count: d.Count}, nil
	case badge.KindSkillLevel:
		return badge.SkillLevel{Name: d.Skill, Level: shared.SkillLevel(d.Level)}, nil
	case badge.KindGigCompletion:
		return badge.GigCompletion{Count: d.Count}, nil
	case badge.KindRatingThreshold:
		return badge.RatingThreshold{Minimum: d.MinRating}, nil
	case badge.KindXPThreshold:
		return badge.XPThreshold{Minimum: d.MinXP}, nil
	case badge.KindStreak:
		return badge.StreakLength{Days: d.Days}, nil
	default:
		return nil, fmt.Errorf("unknown criterion kind %q", d.Kind)
	}
}

func scanBadge(row pgx.Row) (*badge.Badge, error) {
	var b badge.Badge
	var rarity string
	var criteriaJSON, prereqJSON []byte

	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Description,
		&rarity,
		&criteriaJSON,
		&prereqJSON,
		&b.XPReward,
		&b.AvailableFrom,
		&b.AvailableUntil,
		&b.Active,
		&b.Hidden,
		&b.CourseScoped,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}

	b.Rarity = badge.Rarity(rarity)

	var criterionDocs []criterionDoc
	if err := json.Unmarshal(criteriaJSON, &criterionDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal criteria for badge %s: %w", b.ID, err)
	}
	for _, d := range criterionDocs {
		c, err := decodeCriterion(d)
		if err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.ID, err)
		}
		b.Criteria = append(b.Criteria, c)
	}

	if err := json.Unmarshal(prereqJSON, &b.Prerequisites); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prerequisites for badge %s: %w", b.ID, err)
	}

	return &b, nil
}
