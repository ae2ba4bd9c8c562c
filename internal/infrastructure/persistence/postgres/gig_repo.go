package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GIG REPOSITORY IMPLEMENTATION
// A gig row plus its application rows form one aggregate; writes go through a
// transaction guarded by the version CAS. The acceptance path additionally
// guards on the stored assignee so two racing accepts resolve to one winner
// even across processes.
// ══════════════════════════════════════════════════════════════════════════════

// GigRepository implements gig.Repository for PostgreSQL.
type GigRepository struct {
	conn *Connection
}

// NewGigRepository creates a new GigRepository.
func NewGigRepository(conn *Connection) *GigRepository {
	return &GigRepository{conn: conn}
}

const gigColumns = `
	id, client_id, title, description, category, skills_required,
	experience_level, remote, longitude, latitude, budget_min, budget_max,
	priority, status, max_applications, assigned_to, assigned_at,
	client_rating, worker_feedback, expires_at, created_at, completed_at, version
`

// Create inserts a new gig.
func (r *GigRepository) Create(ctx context.Context, g *gig.Gig) error {
	query := `
		INSERT INTO gigs (` + gigColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	skillsJSON, err := json.Marshal(g.SkillsRequired)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		g.ID,
		g.ClientID,
		g.Title,
		g.Description,
		g.Category,
		skillsJSON,
		string(g.ExperienceLevel),
		g.Remote,
		g.Location.Longitude,
		g.Location.Latitude,
		g.Budget.Min,
		g.Budget.Max,
		g.Priority,
		string(g.Status),
		g.MaxApplications,
		g.AssignedTo,
		g.AssignedAt,
		g.ClientRating,
		g.WorkerFeedback,
		g.ExpiresAt,
		g.CreatedAt,
		g.CompletedAt,
		g.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.Conflictf("gig", "Create", "gig %s already exists", g.ID)
		}
		return fmt.Errorf("failed to create gig: %w", err)
	}

	return nil
}

// GetByID returns one gig with its applications.
func (r *GigRepository) GetByID(ctx context.Context, id string) (*gig.Gig, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	g, err := scanGig(row)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("gig", "GetByID",
			shared.ErrNotFound, "gig "+id+" not found")
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachApplications(ctx, []*gig.Gig{g}); err != nil {
		return nil, err
	}
	return g, nil
}

// Update persists the gig and its applications with an optimistic version
// check. When the write assigns the gig, the update also requires the stored
// row to be unassigned, so the concurrent-acceptance loser fails even if it
// somehow holds a fresh version.
func (r *GigRepository) Update(ctx context.Context, g *gig.Gig) error {
	query := `
		UPDATE gigs SET
			title = $1,
			description = $2,
			category = $3,
			skills_required = $4,
			experience_level = $5,
			remote = $6,
			longitude = $7,
			latitude = $8,
			budget_min = $9,
			budget_max = $10,
			priority = $11,
			status = $12,
			max_applications = $13,
			assigned_to = $14,
			assigned_at = $15,
			client_rating = $16,
			worker_feedback = $17,
			expires_at = $18,
			completed_at = $19,
			version = version + 1
		WHERE id = $20 AND version = $21
	`
	if g.AssignedTo != "" {
		query += ` AND (assigned_to = '' OR assigned_to = $22)`
	}

	skillsJSON, err := json.Marshal(g.SkillsRequired)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	args := []interface{}{
		g.Title,
		g.Description,
		g.Category,
		skillsJSON,
		string(g.ExperienceLevel),
		g.Remote,
		g.Location.Longitude,
		g.Location.Latitude,
		g.Budget.Min,
		g.Budget.Max,
		g.Priority,
		string(g.Status),
		g.MaxApplications,
		g.AssignedTo,
		g.AssignedAt,
		g.ClientRating,
		g.WorkerFeedback,
		g.ExpiresAt,
		g.CompletedAt,
		g.ID,
		g.Version,
	}
	if g.AssignedTo != "" {
		args = append(args, g.AssignedTo)
	}

	err = r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update gig: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.NewDomainError("gig", "Update", shared.ErrOptimisticLock,
				"gig "+g.ID+" was modified concurrently")
		}

		return upsertApplications(ctx, tx, g)
	})
	if err != nil {
		return err
	}

	g.Version++
	return nil
}

func upsertApplications(ctx context.Context, tx pgx.Tx, g *gig.Gig) error {
	query := `
		INSERT INTO gig_applications (
			id, gig_id, applicant_id, status, cover_letter, proposed_rate,
			applied_at, response_at, response_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			response_at = EXCLUDED.response_at,
			response_message = EXCLUDED.response_message
	`

	for i := range g.Applications {
		app := &g.Applications[i]
		_, err := tx.Exec(ctx, query,
			app.ID,
			g.ID,
			app.ApplicantID,
			string(app.Status),
			app.CoverLetter,
			app.ProposedRate,
			app.AppliedAt,
			app.ResponseAt,
			app.ResponseMessage,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.Conflictf("gig", "Update",
					"user %s already applied to gig %s", app.ApplicantID, g.ID)
			}
			return fmt.Errorf("failed to upsert application %s: %w", app.ID, err)
		}
	}

	return nil
}

// FindNearby returns posted, unexpired gigs within maxDistanceKm of origin.
// Remote gigs have no location constraint and always qualify. The haversine
// runs in SQL over the partial location index so the candidate set stays
// bounded before the in-process filters see it.
func (r *GigRepository) FindNearby(ctx context.Context, origin shared.GeoPoint, maxDistanceKm float64) ([]*gig.Gig, error) {
	query := `
		SELECT ` + gigColumns + `
		FROM gigs
		WHERE status = 'posted'
		  AND expires_at > NOW()
		  AND (remote OR (
			6371 * acos(least(1.0,
				cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
				sin(radians($1)) * sin(radians(latitude))
			))
		  ) <= $3)
		ORDER BY priority DESC, created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, origin.Latitude, origin.Longitude, maxDistanceKm)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby gigs: %w", err)
	}
	defer rows.Close()

	gigs, err := scanGigs(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachApplications(ctx, gigs); err != nil {
		return nil, err
	}
	return gigs, nil
}

// ListExpired returns posted gigs whose expiry has passed.
func (r *GigRepository) ListExpired(ctx context.Context, limit int) ([]*gig.Gig, error) {
	query := `
		SELECT ` + gigColumns + `
		FROM gigs
		WHERE status = 'posted' AND expires_at <= NOW()
		ORDER BY expires_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired gigs: %w", err)
	}
	defer rows.Close()

	return scanGigs(rows)
}

// ListByClient returns gigs posted by a client, newest first.
func (r *GigRepository) ListByClient(ctx context.Context, clientID string) ([]*gig.Gig, error) {
	query := `
		SELECT ` + gigColumns + `
		FROM gigs
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gigs by client: %w", err)
	}
	defer rows.Close()

	gigs, err := scanGigs(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachApplications(ctx, gigs); err != nil {
		return nil, err
	}
	return gigs, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// attachApplications loads the application rows for the given gigs in one
// query and attaches them in applied-at order.
func (r *GigRepository) attachApplications(ctx context.Context, gigs []*gig.Gig) error {
	if len(gigs) == 0 {
		return nil
	}

	byID := make(map[string]*gig.Gig, len(gigs))
	placeholders := make([]string, len(gigs))
	args := make([]interface{}, len(gigs))
	for i, g := range gigs {
		byID[g.ID] = g
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = g.ID
	}

	query := fmt.Sprintf(`
		SELECT gig_id, id, applicant_id, status, cover_letter, proposed_rate,
			   applied_at, response_at, response_message
		FROM gig_applications
		WHERE gig_id IN (%s)
		ORDER BY applied_at ASC
	`, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load applications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gigID, status string
		var app gig.Application

		err := rows.Scan(
			&gigID,
			&app.ID,
			&app.ApplicantID,
			&status,
			&app.CoverLetter,
			&app.ProposedRate,
			&app.AppliedAt,
			&app.ResponseAt,
			&app.ResponseMessage,
		)
		if err != nil {
			return fmt.Errorf("failed to scan application: %w", err)
		}

		app.Status = gig.ApplicationStatus(status)
		if g, ok := byID[gigID]; ok {
			g.Applications = append(g.Applications, app)
		}
	}

	return rows.Err()
}

func scanGig(row pgx.Row) (*gig.Gig, error) {
	var g gig.Gig
	var experienceLevel, status string
	var skillsJSON []byte
	var assignedAt, completedAt *time.Time

	err := row.Scan(
		&g.ID,
		&g.ClientID,
		&g.Title,
		&g.Description,
		&g.Category,
		&skillsJSON,
		&experienceLevel,
		&g.Remote,
		&g.Location.Longitude,
		&g.Location.Latitude,
		&g.Budget.Min,
		&g.Budget.Max,
		&g.Priority,
		&status,
		&g.MaxApplications,
		&g.AssignedTo,
		&assignedAt,
		&g.ClientRating,
		&g.WorkerFeedback,
		&g.ExpiresAt,
		&g.CreatedAt,
		&completedAt,
		&g.Version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan gig: %w", err)
	}

	g.ExperienceLevel = shared.SkillLevel(experienceLevel)
	g.Status = gig.Status(status)
	g.AssignedAt = assignedAt
	g.CompletedAt = completedAt

	if err := json.Unmarshal(skillsJSON, &g.SkillsRequired); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
	}

	return &g, nil
}

func scanGigs(rows pgx.Rows) ([]*gig.Gig, error) {
	var gigs []*gig.Gig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, err
		}
		gigs = append(gigs, g)
	}
	return gigs, rows.Err()
}
