package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/course"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// Course definitions are read-only here; modules and the optional quiz are
// stored as documents on the course row.
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// GetByID returns one course definition.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*course.Course, error) {
	query := `
		SELECT id, title, skill, modules, quiz, xp_reward, badge_id
		FROM courses
		WHERE id = $1
	`

	var c course.Course
	var modulesJSON, quizJSON []byte

	err := r.conn.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Skill,
		&modulesJSON,
		&quizJSON,
		&c.XPReward,
		&c.BadgeID,
	)

	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetByID",
			shared.ErrNotFound, "course "+id+" not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	var moduleDocs []moduleDoc
	if err := json.Unmarshal(modulesJSON, &moduleDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal modules: %w", err)
	}
	for _, d := range moduleDocs {
		c.Modules = append(c.Modules, course.Module{
			ID:         d.ID,
			Title:      d.Title,
			Order:      d.Order,
			Duration:   time.Duration(d.DurationMinutes) * time.Minute,
			XPReward:   d.XPReward,
			IsOptional: d.IsOptional,
		})
	}

	if len(quizJSON) > 0 {
		var qd quizDoc
		if err := json.Unmarshal(quizJSON, &qd); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz: %w", err)
		}
		c.Quiz = qd.toDomain()
	}

	return &c, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseProgressRepository implements course.ProgressRepository for PostgreSQL.
type CourseProgressRepository struct {
	conn *Connection
}

// NewCourseProgressRepository creates a new CourseProgressRepository.
func NewCourseProgressRepository(conn *Connection) *CourseProgressRepository {
	return &CourseProgressRepository{conn: conn}
}

// Create inserts an enrollment record.
func (r *CourseProgressRepository) Create(ctx context.Context, p *course.Progress) error {
	query := `
		INSERT INTO course_progress (
			user_id, course_id, modules, quiz_attempts, best_quiz_score,
			quiz_passed, percentage, status, enrolled_at, completed_at,
			version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	modulesJSON, attemptsJSON, err := marshalProgressDocs(p)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		p.UserID,
		p.CourseID,
		modulesJSON,
		attemptsJSON,
		p.BestQuizScore,
		p.QuizPassed,
		p.Percentage,
		string(p.Status),
		p.EnrolledAt,
		p.CompletedAt,
		p.Version,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.Conflictf("course", "Create",
				"user %s is already enrolled in course %s", p.UserID, p.CourseID)
		}
		return fmt.Errorf("failed to create course progress: %w", err)
	}

	return nil
}

// Get returns the record for the (user, course) pair.
func (r *CourseProgressRepository) Get(ctx context.Context, userID, courseID string) (*course.Progress, error) {
	query := `
		SELECT user_id, course_id, modules, quiz_attempts, best_quiz_score,
			   quiz_passed, percentage, status, enrolled_at, completed_at,
			   version, updated_at
		FROM course_progress
		WHERE user_id = $1 AND course_id = $2
	`

	row := r.conn.QueryRow(ctx, query, userID, courseID)
	p, err := scanCourseProgress(row)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "Get",
			shared.ErrNotFound, "user "+userID+" is not enrolled in course "+courseID)
	}
	return p, err
}

// Update persists the record with an optimistic version check.
func (r *CourseProgressRepository) Update(ctx context.Context, p *course.Progress) error {
	query := `
		UPDATE course_progress SET
			modules = $1,
			quiz_attempts = $2,
			best_quiz_score = $3,
			quiz_passed = $4,
			percentage = $5,
			status = $6,
			completed_at = $7,
			version = version + 1,
			updated_at = $8
		WHERE user_id = $9 AND course_id = $10 AND version = $11
	`

	modulesJSON, attemptsJSON, err := marshalProgressDocs(p)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		modulesJSON,
		attemptsJSON,
		p.BestQuizScore,
		p.QuizPassed,
		p.Percentage,
		string(p.Status),
		p.CompletedAt,
		time.Now().UTC(),
		p.UserID,
		p.CourseID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update course progress: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("course", "Update", shared.ErrOptimisticLock,
			"progress record version moved for user "+p.UserID+" course "+p.CourseID)
	}

	p.Version++
	return nil
}

// ListByUser returns all of the user's progress records.
func (r *CourseProgressRepository) ListByUser(ctx context.Context, userID string) ([]*course.Progress, error) {
	query := `
		SELECT user_id, course_id, modules, quiz_attempts, best_quiz_score,
			   quiz_passed, percentage, status, enrolled_at, completed_at,
			   version, updated_at
		FROM course_progress
		WHERE user_id = $1
		ORDER BY enrolled_at ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}
	defer rows.Close()

	var records []*course.Progress
	for rows.Next() {
		p, err := scanCourseProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}

	return records, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type moduleDoc struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"duration_minutes"`
	XPReward        int    `json:"xp_reward"`
	IsOptional      bool   `json:"is_optional,omitempty"`
}

type optionDoc struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

type questionDoc struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Text          string      `json:"text"`
	Options       []optionDoc `json:"options,omitempty"`
	CorrectAnswer string      `json:"correct_answer,omitempty"`
	Points        int         `json:"points"`
}

type quizDoc struct {
	Questions       []questionDoc `json:"questions"`
	PassingScore    int           `json:"passing_score,omitempty"`
	AttemptsAllowed int           `json:"attempts_allowed,omitempty"`
	XPReward        int           `json:"xp_reward,omitempty"`
}

func (d quizDoc) toDomain() *course.Quiz {
	q := &course.Quiz{
		PassingScore:    d.PassingScore,
		AttemptsAllowed: d.AttemptsAllowed,
		XPReward:        d.XPReward,
	}
	for _, qd := range d.Questions {
		question := course.Question{
			ID:            qd.ID,
			Type:          course.QuestionType(qd.Type),
			Text:          qd.Text,
			CorrectAnswer: qd.CorrectAnswer,
			Points:        qd.Points,
		}
		for _, od := range qd.Options {
			question.Options = append(question.Options, course.Option{
				Text:      od.Text,
				IsCorrect: od.IsCorrect,
			})
		}
		q.Questions = append(q.Questions, question)
	}
	return q
}

type moduleProgressDoc struct {
	Status           string     `json:"status"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type quizAttemptDoc struct {
	Score            int               `json:"score"`
	Passed           bool              `json:"passed"`
	Answers          map[string]string `json:"answers"`
	TimeSpentMinutes int               `json:"time_spent_minutes"`
	SubmittedAt      time.Time         `json:"submitted_at"`
}

func marshalProgressDocs(p *course.Progress) (modules, attempts []byte, err error) {
	moduleDocs := make(map[string]moduleProgressDoc, len(p.Modules))
	for id, m := range p.Modules {
		moduleDocs[id] = moduleProgressDoc{
			Status:           string(m.Status),
			TimeSpentMinutes: int(m.TimeSpent.Minutes()),
			StartedAt:        m.StartedAt,
			CompletedAt:      m.CompletedAt,
		}
	}
	if modules, err = json.Marshal(moduleDocs); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal module progress: %w", err)
	}

	attemptDocs := make([]quizAttemptDoc, 0, len(p.QuizAttempts))
	for _, a := range p.QuizAttempts {
		attemptDocs = append(attemptDocs, quizAttemptDoc{
			Score:            a.Score,
			Passed:           a.Passed,
			Answers:          a.Answers,
			TimeSpentMinutes: int(a.TimeSpent.Minutes()),
			SubmittedAt:      a.SubmittedAt,
		})
	}
	if attempts, err = json.Marshal(attemptDocs); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal quiz attempts: %w", err)
	}

	return modules, attempts, nil
}

func scanCourseProgress(row pgx.Row) (*course.Progress, error) {
	var p course.Progress
	var status string
	var modulesJSON, attemptsJSON []byte

	err := row.Scan(
		&p.UserID,
		&p.CourseID,
		&modulesJSON,
		&attemptsJSON,
		&p.BestQuizScore,
		&p.QuizPassed,
		&p.Percentage,
		&status,
		&p.EnrolledAt,
		&p.CompletedAt,
		&p.Version,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan course progress: %w", err)
	}

	p.Status = course.Status(status)

	var moduleDocs map[string]moduleProgressDoc
	if err := json.Unmarshal(modulesJSON, &moduleDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal module progress: %w", err)
	}
	p.Modules = make(map[string]*course.ModuleProgress, len(moduleDocs))
	for id, d := range moduleDocs {
		p.Modules[id] = &course.ModuleProgress{
			Status:      course.ModuleStatus(d.Status),
			TimeSpent:   time.Duration(d.TimeSpentMinutes) * time.Minute,
			StartedAt:   d.StartedAt,
			CompletedAt: d.CompletedAt,
		}
	}

	var attemptDocs []quizAttemptDoc
	if err := json.Unmarshal(attemptsJSON, &attemptDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quiz attempts: %w", err)
	}
	for _, d := range attemptDocs {
		p.QuizAttempts = append(p.QuizAttempts, course.QuizAttempt{
			Score:       d.Score,
			Passed:      d.Passed,
			Answers:     d.Answers,
			TimeSpent:   time.Duration(d.TimeSpentMinutes) * time.Minute,
			SubmittedAt: d.SubmittedAt,
		})
	}

	return &p, nil
}
