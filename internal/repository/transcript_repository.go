package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// TranscriptRepository reads completed-course facts from the registrar database.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository creates a new instance of TranscriptRepository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// ListCompletions returns completions that sort after the cursor, oldest first, at most limit rows.
func (r *TranscriptRepository) ListCompletions(ctx context.Context, after models.TranscriptCursor, limit int) ([]models.CompletedCourse, error) {
	const query = `SELECT student_username, course_code, completed_at FROM transcript_completions WHERE (completed_at, student_username, course_code) > ($1, $2, $3) ORDER BY completed_at ASC, student_username ASC, course_code ASC LIMIT $4`
	if limit <= 0 {
		limit = 1000
	}
	var rows []models.CompletedCourse
	if err := r.db.SelectContext(ctx, &rows, query, after.CompletedAt, after.Student, after.Course, limit); err != nil {
		return nil, fmt.Errorf("list transcript completions: %w", err)
	}
	return rows, nil
}

// InsertCompletion writes a completion row. Existing rows are left untouched.
func (r *TranscriptRepository) InsertCompletion(ctx context.Context, completion models.CompletedCourse) error {
	const query = `INSERT INTO transcript_completions (student_username, course_code, completed_at) VALUES (:student_username, :course_code, :completed_at) ON CONFLICT (student_username, course_code) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, completion); err != nil {
		return fmt.Errorf("insert transcript completion: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (r *TranscriptRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
