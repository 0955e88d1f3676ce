package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS drafts (
	id            TEXT PRIMARY KEY,
	sender_id     INTEGER NOT NULL,
	sender_name   TEXT NOT NULL DEFAULT '',
	receiver_id   INTEGER NOT NULL DEFAULT 0,
	receiver_name TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	level       TEXT NOT NULL DEFAULT 'info',
	title       TEXT NOT NULL DEFAULT '',
	text        TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drafts_sender ON drafts(sender_id);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_drafts_updated
	ON drafts(sender_id, updated_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
