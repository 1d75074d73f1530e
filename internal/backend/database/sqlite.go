package database

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
	now              func() time.Time
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, storageError("open", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
		now:              time.Now,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT,
		disease TEXT,
		confidence REAL,
		timestamp TEXT
	)`)
	if err != nil {
		return nil, storageError("create schema", err)
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// SQLite creates the file on connect, so a successful ping is enough.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) AppendUpload(ctx context.Context, record *UploadRecord) (*UploadRecord, error) {
	stored := *record
	if stored.Timestamp == "" {
		stored.Timestamp = s.now().Format(TimestampLayout)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (filename, disease, confidence, timestamp) VALUES (?, ?, ?, ?)",
		stored.Filename, stored.Disease, stored.Confidence, stored.Timestamp)
	if err != nil {
		return nil, storageError("append", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageError("append", err)
	}
	stored.ID = id

	return &stored, nil
}

func (s *SQLiteDatabase) GetAllUploads(ctx context.Context) ([]*UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, disease, confidence, timestamp FROM uploads ORDER BY id DESC")
	if err != nil {
		return nil, storageError("list", err)
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	records := make([]*UploadRecord, 0)
	for rows.Next() {
		var record UploadRecord
		if err := rows.Scan(&record.ID, &record.Filename, &record.Disease, &record.Confidence, &record.Timestamp); err != nil {
			return nil, storageError("list", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list", err)
	}
	return records, nil
}
