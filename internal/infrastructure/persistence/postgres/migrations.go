package postgres

// Embedded migrations for the Kudos Hub schema.
// The ledger table carries a partial unique index over
// (user_id, point_type_id, link_id) for active rows: it is the database-level
// idempotency gate behind Award, so a lost race surfaces as a unique
// violation instead of a double credit.

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_ledger",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_profiles",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_completions",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_rank_snapshots",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS point_types (
	id SERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	points INTEGER NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS interactions (
	id UUID PRIMARY KEY,
	type_code TEXT NOT NULL,
	user_id TEXT NOT NULL,
	occurred_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	point_type_id INTEGER NOT NULL REFERENCES point_types(id),
	points INTEGER NOT NULL,
	multiplier INTEGER NOT NULL DEFAULT 1,
	link_id TEXT,
	interaction_id UUID REFERENCES interactions(id),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	voided_by TEXT,
	voided_at TIMESTAMP WITH TIME ZONE
);

-- Idempotency gate: at most one active entry per completion and point type.
-- Voided entries drop out of the index, so a re-credit after an admin void
-- is possible by design.
CREATE UNIQUE INDEX IF NOT EXISTS uq_ledger_entries_active_link
	ON ledger_entries(user_id, point_type_id, link_id)
	WHERE voided_by IS NULL AND link_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_active
	ON ledger_entries(user_id)
	WHERE voided_by IS NULL;

CREATE INDEX IF NOT EXISTS idx_ledger_entries_point_type
	ON ledger_entries(point_type_id)
	WHERE voided_by IS NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS ledger_entries;
DROP TABLE IF EXISTS interactions;
DROP TABLE IF EXISTS point_types;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	anonymous BOOLEAN NOT NULL DEFAULT FALSE,
	points_total INTEGER NOT NULL DEFAULT 0,
	last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	last_hero_activity TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	last_guide_activity TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT '2020-01-01T00:00:00Z',
	token UUID NOT NULL,
	avatar_color TEXT NOT NULL DEFAULT 'gray',
	avatar_level INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_profiles_points_total ON profiles(points_total DESC);

CREATE TABLE IF NOT EXISTS user_parts (
	user_id TEXT NOT NULL REFERENCES profiles(user_id),
	part_type TEXT NOT NULL,
	part_id INTEGER NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	PRIMARY KEY (user_id, part_type)
);
`

const migration002Down = `
DROP TABLE IF EXISTS user_parts;
DROP TABLE IF EXISTS profiles;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS learning_task_completions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	point_type_code TEXT NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_learning_task_completions_user ON learning_task_completions(user_id);

CREATE TABLE IF NOT EXISTS side_quest_completions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	quest_id TEXT NOT NULL,
	point_type_code TEXT NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_side_quest_completions_user ON side_quest_completions(user_id);

CREATE TABLE IF NOT EXISTS mission_completions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	mission_id TEXT NOT NULL,
	mission_type INTEGER NOT NULL,
	side_quest_completion_id TEXT REFERENCES side_quest_completions(id),
	point_type_code TEXT NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mission_completions_user ON mission_completions(user_id);

CREATE TABLE IF NOT EXISTS course_completions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	course_id TEXT NOT NULL,
	point_type_code TEXT NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_course_completions_user ON course_completions(user_id);
`

const migration003Down = `
DROP TABLE IF EXISTS course_completions;
DROP TABLE IF EXISTS mission_completions;
DROP TABLE IF EXISTS side_quest_completions;
DROP TABLE IF EXISTS learning_task_completions;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS rank_snapshots (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	rank_position INTEGER NOT NULL,
	points INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rank_snapshots_user_created
	ON rank_snapshots(user_id, created_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS rank_snapshots;
`
