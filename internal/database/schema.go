package database

import "strings"

// schema returns the DDL for the given driver. The column set is shared;
// only the timestamp type and index syntax differ. Every unique key is
// named so driver errors identify which key was violated.
func schema(driver string) []string {
	ts := "DATETIME"
	switch driver {
	case DriverMySQL:
		ts = "DATETIME(6)"
	case DriverPostgres:
		ts = "TIMESTAMPTZ"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
	annotator_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(32) NOT NULL,
	created_at {ts} NOT NULL,
	updated_at {ts} NOT NULL,
	CONSTRAINT pk_users_annotator_id PRIMARY KEY (annotator_id),
	CONSTRAINT uq_users_name UNIQUE (name),
	CONSTRAINT uq_users_email UNIQUE (email)
)`,
		`CREATE TABLE IF NOT EXISTS annotations (
	annotation_id CHAR(6) NOT NULL,
	annotator_id BIGINT NOT NULL,
	annotator_email VARCHAR(255) NOT NULL,
	src_text TEXT NOT NULL,
	src_hash CHAR(64) NOT NULL,
	src_lang VARCHAR(64) NOT NULL,
	target_lang VARCHAR(64) NOT NULL,
	comment TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL,
	omission INT NOT NULL,
	addition INT NOT NULL,
	mistranslation INT NOT NULL,
	untranslation INT NOT NULL,
	src_issue TEXT NOT NULL,
	target_issue TEXT NOT NULL,
	reviewed BOOLEAN NOT NULL,
	skipped BOOLEAN NOT NULL,
	created_at {ts} NOT NULL,
	updated_at {ts} NOT NULL,
	CONSTRAINT pk_annotations_annotation_id PRIMARY KEY (annotation_id),
	CONSTRAINT uq_annotations_owner_src UNIQUE (annotator_id, src_hash){created_idx}
)`,
		`CREATE TABLE IF NOT EXISTS progress (
	annotator_id BIGINT NOT NULL,
	last_index INT NOT NULL,
	updated_at {ts} NOT NULL,
	CONSTRAINT pk_progress_annotator_id PRIMARY KEY (annotator_id)
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
	position INT NOT NULL,
	english TEXT NOT NULL,
	somali TEXT NOT NULL,
	CONSTRAINT pk_tasks_position PRIMARY KEY (position)
)`,
	}

	createdIdx := ""
	if driver == DriverMySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; declare it inline.
		createdIdx = ",\n\tINDEX idx_annotations_created_at (created_at)"
	} else {
		stmts = append(stmts, `CREATE INDEX IF NOT EXISTS idx_annotations_created_at ON annotations (created_at)`)
	}

	r := strings.NewReplacer("{ts}", ts, "{created_idx}", createdIdx)
	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}
