package database

// TimestampLayout is the persisted timestamp format (YYYY-MM-DD HH:MM:SS).
const TimestampLayout = "2006-01-02 15:04:05"

type UploadRecord struct {
	ID         int64   `db:"id" json:"id"`
	Filename   string  `db:"filename" json:"filename"`
	Disease    string  `db:"disease" json:"disease"`
	Confidence float64 `db:"confidence" json:"confidence"` // percentage in [0,100]
	Timestamp  string  `db:"timestamp" json:"timestamp"`
}
