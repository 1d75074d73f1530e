package database

import (
	"context"
	"database/sql"
)

// DatabaseService is the append-only prediction log.
type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// AppendUpload inserts one record and returns it with its assigned ID.
	// A zero Timestamp is filled with the current local time.
	AppendUpload(ctx context.Context, record *UploadRecord) (*UploadRecord, error)
	// GetAllUploads returns every record, newest (highest ID) first.
	GetAllUploads(ctx context.Context) ([]*UploadRecord, error)
}
