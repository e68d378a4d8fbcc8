package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection shared by the directory and recorder
// services. SQLite handles one writer at a time, so the pool is pinned to
// a single connection in WAL mode.
type DB struct {
	conn *sql.DB
}

// Open creates the connection and bootstraps the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Conn exposes the underlying connection to the repository services.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cameras (
		id TEXT PRIMARY KEY,
		location TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS authorities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		UNIQUE(email, role)
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		confidence REAL NOT NULL,
		timestamp DATETIME NOT NULL,
		location TEXT NOT NULL,
		camera_id TEXT NOT NULL,
		email_sent INTEGER NOT NULL DEFAULT 0,
		authority_email TEXT NOT NULL,
		next_email_allowed_at DATETIME NOT NULL,
		frame_url TEXT,
		confidence_history TEXT NOT NULL,
		bounding_box TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		detection_id INTEGER NOT NULL,
		authority_email TEXT NOT NULL,
		status TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		acknowledged_at DATETIME,
		FOREIGN KEY (detection_id) REFERENCES detections(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_authorities_role ON authorities(role);
	CREATE INDEX IF NOT EXISTS idx_detections_label ON detections(label);
	CREATE INDEX IF NOT EXISTS idx_detections_camera_id ON detections(camera_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_detection_id ON alerts(detection_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}
