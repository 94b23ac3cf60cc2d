package homeworkgen

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents an assessment database connection
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

var (
	sharedDB     *DB
	sharedDBErr  error
	sharedDBOnce sync.Once
)

// SharedDB returns the process-wide database handle, opening it (and ensuring
// the schema) on first use.
func SharedDB(dbPath string) (*DB, error) {
	sharedDBOnce.Do(func() {
		sharedDB, sharedDBErr = OpenDB(dbPath)
		if sharedDBErr != nil {
			return
		}
		sharedDBErr = sharedDB.CreateTables()
	})
	return sharedDB, sharedDBErr
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		number INTEGER NOT NULL,
		modules TEXT NOT NULL,
		question_types TEXT NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`

	if _, err := db.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute %s: %w", query, err)
	}
	return nil
}

// SaveAssessment stores a finished assessment, assigning its id and
// timestamps, and returns the stored record.
func (db *DB) SaveAssessment(ctx context.Context, record *AssessmentRecord) (*AssessmentRecord, error) {
	if record.Number <= 0 {
		return nil, fmt.Errorf("invalid number field: must be a positive integer")
	}
	if len(record.Questions) == 0 {
		return nil, fmt.Errorf("invalid questions field: must be a non-empty array")
	}

	stored := *record
	stored.ID = uuid.NewString()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Timestamp == "" {
		stored.Timestamp = now.Format(time.RFC3339)
	}

	modules, err := stringsToJSON(stored.Modules)
	if err != nil {
		return nil, err
	}
	questionTypes, err := stringsToJSON(stored.QuestionTypes)
	if err != nil {
		return nil, err
	}
	questions, err := json.Marshal(stored.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}

	_, err = db.db.ExecContext(ctx,
		"INSERT INTO assessments (id, timestamp, number, modules, question_types, questions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID, stored.Timestamp, stored.Number, modules, questionTypes, string(questions), stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}
	return &stored, nil
}

// ListAssessments retrieves all stored assessments, newest first. An empty
// store yields an empty slice, not an error.
func (db *DB) ListAssessments(ctx context.Context) ([]AssessmentRecord, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT id, timestamp, number, modules, question_types, questions, created_at, updated_at FROM assessments ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]AssessmentRecord, 0)
	for rows.Next() {
		record, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}

	return assessments, nil
}

// GetAssessment retrieves a stored assessment by ID
func (db *DB) GetAssessment(ctx context.Context, id string) (*AssessmentRecord, error) {
	row := db.db.QueryRowContext(ctx,
		"SELECT id, timestamp, number, modules, question_types, questions, created_at, updated_at FROM assessments WHERE id = ?",
		id,
	)
	record, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assessment not found: %s", id)
	}
	return record, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*AssessmentRecord, error) {
	var record AssessmentRecord
	var modules, questionTypes, questions string
	err := row.Scan(&record.ID, &record.Timestamp, &record.Number, &modules, &questionTypes, &questions, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if record.Modules, err = jsonToStrings(modules); err != nil {
		return nil, err
	}
	if record.QuestionTypes, err = jsonToStrings(questionTypes); err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(questions), &record.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &record, nil
}

// stringsToJSON encodes a string slice as a JSON string, treating nil as
// an empty list.
func stringsToJSON(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal strings: %w", err)
	}
	return string(data), nil
}

// jsonToStrings decodes a JSON string back into a string slice.
func jsonToStrings(data string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strings: %w", err)
	}
	return values, nil
}
