package eventlog

// SchemaVersion is the current event store schema version.
const SchemaVersion = 1

// Schema creates the event and checkpoint tables.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS events (
	id       TEXT PRIMARY KEY,
	tick     INTEGER NOT NULL,
	seq      INTEGER NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	rule_id  TEXT NOT NULL,
	bindings TEXT NOT NULL DEFAULT '{}',
	recorded TIMESTAMP NOT NULL,
	UNIQUE (tick, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_tick ON events (tick);

CREATE TABLE IF NOT EXISTS checkpoints (
	tick     INTEGER PRIMARY KEY,
	snapshot TEXT NOT NULL,
	created  TIMESTAMP NOT NULL
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version;`

const insertEvent = `
INSERT INTO events (id, tick, seq, location, rule_id, bindings, recorded)
VALUES (?, ?, ?, ?, ?, ?, ?);`

const selectEventsSince = `
SELECT id, tick, seq, location, rule_id, bindings, recorded
FROM events WHERE tick >= ? ORDER BY tick, seq;`

const insertCheckpoint = `
INSERT OR REPLACE INTO checkpoints (tick, snapshot, created) VALUES (?, ?, ?);`

const selectLatestCheckpoint = `
SELECT tick, snapshot FROM checkpoints ORDER BY tick DESC LIMIT 1;`

const deleteEventsBefore = `DELETE FROM events WHERE tick < ?;`
