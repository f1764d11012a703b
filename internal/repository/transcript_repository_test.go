package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestListCompletions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db)

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	done := since.Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"student_username", "course_code", "completed_at"}).
		AddRow("alice", "CSCI-101", done).
		AddRow("bob", "MATH-121", done)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_username, course_code, completed_at FROM transcript_completions WHERE (completed_at, student_username, course_code) > ($1, $2, $3) ORDER BY completed_at ASC, student_username ASC, course_code ASC LIMIT $4")).
		WithArgs(since, "zed", "CSCI-101", 1000).
		WillReturnRows(rows)

	result, err := repo.ListCompletions(context.Background(), models.TranscriptCursor{CompletedAt: since, Student: "zed", Course: "CSCI-101"}, 0)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].StudentUsername)
	assert.Equal(t, "CSCI-101", result[0].CourseCode)
	assert.True(t, done.Equal(result[1].RecordedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCompletionsWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db)

	mock.ExpectQuery("FROM transcript_completions").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListCompletions(context.Background(), models.TranscriptCursor{}, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list transcript completions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCompletion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec("INSERT INTO transcript_completions").
		WithArgs("alice", "CSCI-101", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertCompletion(context.Background(), models.CompletedCourse{StudentUsername: "alice", CourseCode: "CSCI-101", RecordedAt: at})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
