// Package postgres implements the PostgreSQL persistence layer of the engine.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_progress_states",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_courses",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_gigs",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROGRESS STATES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create progress state tables
-- Version: 001

-- One row per user: XP, streak, skills, earned badges and gig counters.
-- The row is written as a unit with a version CAS; the engine serializes
-- writers per user above this layer.
CREATE TABLE IF NOT EXISTS progress_states (
    user_id VARCHAR(64) PRIMARY KEY,
    current_xp INTEGER NOT NULL DEFAULT 0,
    streak_current INTEGER NOT NULL DEFAULT 0,
    streak_longest INTEGER NOT NULL DEFAULT 0,
    streak_last_activity DATE,
    skills JSONB NOT NULL DEFAULT '[]'::jsonb,
    badges_earned JSONB NOT NULL DEFAULT '[]'::jsonb,
    completed_courses JSONB NOT NULL DEFAULT '[]'::jsonb,
    gigs_completed INTEGER NOT NULL DEFAULT 0,
    rating_average DECIMAL(4,3) NOT NULL DEFAULT 0,
    rating_count INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (current_xp >= 0),
    CONSTRAINT valid_streak CHECK (streak_current >= 0 AND streak_longest >= streak_current),
    CONSTRAINT valid_rating CHECK (rating_average >= 0 AND rating_average <= 5 AND rating_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_progress_states_xp ON progress_states(current_xp DESC);

-- Append-only XP audit trail.
CREATE TABLE IF NOT EXISTS xp_history (
    id BIGSERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL REFERENCES progress_states(user_id) ON DELETE CASCADE,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    reason VARCHAR(50) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_user ON xp_history(user_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS progress_states;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE COURSES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create course definition and progress tables
-- Version: 002

-- Course definitions are authored by an administrative surface; the engine
-- only reads them. Modules and the optional quiz ride along as documents.
CREATE TABLE IF NOT EXISTS courses (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    skill VARCHAR(100) NOT NULL DEFAULT '',
    modules JSONB NOT NULL DEFAULT '[]'::jsonb,
    quiz JSONB,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    badge_id VARCHAR(64) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- One progress record per (user, course) pair, created at enrollment.
CREATE TABLE IF NOT EXISTS course_progress (
    user_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    modules JSONB NOT NULL DEFAULT '{}'::jsonb,
    quiz_attempts JSONB NOT NULL DEFAULT '[]'::jsonb,
    best_quiz_score INTEGER NOT NULL DEFAULT 0,
    quiz_passed BOOLEAN NOT NULL DEFAULT FALSE,
    percentage INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'not-started',
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,
    version INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, course_id),
    CONSTRAINT valid_progress_status CHECK (status IN ('not-started', 'in-progress', 'completed', 'abandoned')),
    CONSTRAINT valid_percentage CHECK (percentage >= 0 AND percentage <= 100)
);

CREATE INDEX IF NOT EXISTS idx_course_progress_user ON course_progress(user_id);

-- Badge definitions: criteria and prerequisites as documents, the mutable
-- per-user earned set lives in progress_states.
CREATE TABLE IF NOT EXISTS badges (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    rarity VARCHAR(20) NOT NULL DEFAULT 'common',
    criteria JSONB NOT NULL DEFAULT '[]'::jsonb,
    prerequisites JSONB NOT NULL DEFAULT '[]'::jsonb,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    available_from TIMESTAMP WITH TIME ZONE,
    available_until TIMESTAMP WITH TIME ZONE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    hidden BOOLEAN NOT NULL DEFAULT FALSE,
    course_scoped BOOLEAN NOT NULL DEFAULT FALSE,

    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'uncommon', 'rare', 'epic', 'legendary'))
);

CREATE INDEX IF NOT EXISTS idx_badges_active ON badges(active) WHERE active;
`

const migration002Down = `
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS course_progress;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE GIGS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create gig marketplace tables
-- Version: 003

CREATE TABLE IF NOT EXISTS gigs (
    id UUID PRIMARY KEY,
    client_id VARCHAR(64) NOT NULL,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(100) NOT NULL DEFAULT '',
    skills_required JSONB NOT NULL DEFAULT '[]'::jsonb,
    experience_level VARCHAR(20) NOT NULL DEFAULT '',
    remote BOOLEAN NOT NULL DEFAULT FALSE,
    longitude DOUBLE PRECISION NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    budget_min INTEGER NOT NULL DEFAULT 0,
    budget_max INTEGER NOT NULL DEFAULT 0,
    priority INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'draft',
    max_applications INTEGER NOT NULL DEFAULT 0,
    assigned_to VARCHAR(64) NOT NULL DEFAULT '',
    assigned_at TIMESTAMP WITH TIME ZONE,
    client_rating INTEGER NOT NULL DEFAULT 0,
    worker_feedback TEXT NOT NULL DEFAULT '',
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,
    version INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_gig_status CHECK (status IN ('draft', 'posted', 'in-progress', 'completed', 'cancelled', 'disputed')),
    CONSTRAINT valid_budget CHECK (budget_min >= 0 AND budget_max >= budget_min),
    CONSTRAINT valid_coordinates CHECK (longitude >= -180 AND longitude <= 180 AND latitude >= -90 AND latitude <= 90),
    CONSTRAINT valid_client_rating CHECK (client_rating >= 0 AND client_rating <= 5)
);

CREATE INDEX IF NOT EXISTS idx_gigs_client ON gigs(client_id);
CREATE INDEX IF NOT EXISTS idx_gigs_open ON gigs(expires_at) WHERE status = 'posted';
CREATE INDEX IF NOT EXISTS idx_gigs_location ON gigs(latitude, longitude) WHERE status = 'posted';

CREATE TABLE IF NOT EXISTS gig_applications (
    id UUID PRIMARY KEY,
    gig_id UUID NOT NULL REFERENCES gigs(id) ON DELETE CASCADE,
    applicant_id VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    cover_letter TEXT NOT NULL DEFAULT '',
    proposed_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    response_at TIMESTAMP WITH TIME ZONE,
    response_message TEXT NOT NULL DEFAULT '',

    UNIQUE(gig_id, applicant_id),
    CONSTRAINT valid_application_status CHECK (status IN ('pending', 'accepted', 'rejected', 'withdrawn'))
);

CREATE INDEX IF NOT EXISTS idx_gig_applications_gig ON gig_applications(gig_id);
CREATE INDEX IF NOT EXISTS idx_gig_applications_applicant ON gig_applications(applicant_id);
`

const migration003Down = `
DROP TABLE IF EXISTS gig_applications;
DROP TABLE IF EXISTS gigs;
`
