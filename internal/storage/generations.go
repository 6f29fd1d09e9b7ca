package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/satishskid/gbseo/internal/models"
)

const generationColumns = `id, request_id, user_email, content_type, business_name,
	provider, success, content, error, attempts_json, pending, created_at`

// reservationTTL bounds how long a pending row counts against the
// allowance. A row left pending by a crashed process stops counting after
// this, while a live chain finishes well within it.
const reservationTTL = 10 * time.Minute

// RecordGeneration inserts a generation outcome and returns its ID.
func (s *Store) RecordGeneration(ctx context.Context, rec *models.GenerationRecord) (int64, error) {
	attempts := rec.AttemptsJSON
	if attempts == "" {
		attempts = "[]"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generations
			(request_id, user_email, content_type, business_name, provider, success, content, error, attempts_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.UserEmail, rec.ContentType, rec.BusinessName,
		rec.Provider, rec.Success, rec.Content, rec.Error, attempts,
	)
	if err != nil {
		return 0, fmt.Errorf("recording generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting generation id: %w", err)
	}
	return id, nil
}

// ReserveGeneration inserts rec as a pending row if the email's successful
// generations plus its live reservations are below allowance. The count and
// the insert are one statement, so concurrent requests from the same email
// cannot both take the last slot. It returns ErrQuotaExceeded when the
// allowance is full.
func (s *Store) ReserveGeneration(ctx context.Context, rec *models.GenerationRecord, allowance int) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (request_id, user_email, content_type, business_name, pending)
		 SELECT ?, ?, ?, ?, 1
		 WHERE (
			SELECT COUNT(*) FROM generations
			WHERE user_email = ?
			  AND (success = 1 OR (pending = 1 AND created_at > datetime('now', ?)))
		 ) < ?`,
		rec.RequestID, rec.UserEmail, rec.ContentType, rec.BusinessName,
		rec.UserEmail, ttlModifier(reservationTTL), allowance,
	)
	if err != nil {
		return fmt.Errorf("reserving generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserving generation: %w", err)
	}
	if n == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// CompleteGeneration stores the outcome of a reserved generation and
// releases its reservation. A failed outcome frees the slot.
func (s *Store) CompleteGeneration(ctx context.Context, rec *models.GenerationRecord) error {
	attempts := rec.AttemptsJSON
	if attempts == "" {
		attempts = "[]"
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE generations
		 SET provider = ?, success = ?, content = ?, error = ?, attempts_json = ?, pending = 0
		 WHERE request_id = ? AND pending = 1`,
		rec.Provider, rec.Success, rec.Content, rec.Error, attempts, rec.RequestID,
	)
	if err != nil {
		return fmt.Errorf("completing generation %q: %w", rec.RequestID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing generation %q: %w", rec.RequestID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ttlModifier renders d as a SQLite datetime modifier reaching back d.
func ttlModifier(d time.Duration) string {
	return fmt.Sprintf("-%d seconds", int(d.Seconds()))
}

// CountSuccessfulGenerations returns how many successful generations the
// given email has made. Emails compare case-insensitively.
func (s *Store) CountSuccessfulGenerations(ctx context.Context, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generations WHERE user_email = ? AND success = 1`, email,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting generations for %q: %w", email, err)
	}
	return n, nil
}

// GetRecentGenerations returns the email's most recent generations, newest
// first, limited to the specified count.
func (s *Store) GetRecentGenerations(ctx context.Context, email string, limit int) ([]models.GenerationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+generationColumns+`
		 FROM generations
		 WHERE user_email = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, email, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent generations: %w", err)
	}
	defer rows.Close()

	records := []models.GenerationRecord{}
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generation rows: %w", err)
	}
	return records, nil
}

// GetGenerationByRequestID returns the generation with the given request ID,
// or ErrNotFound.
func (s *Store) GetGenerationByRequestID(ctx context.Context, requestID string) (*models.GenerationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE request_id = ?`, requestID)

	rec, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(sc scanner) (*models.GenerationRecord, error) {
	var (
		rec       models.GenerationRecord
		createdAt string
	)
	if err := sc.Scan(
		&rec.ID, &rec.RequestID, &rec.UserEmail, &rec.ContentType,
		&rec.BusinessName, &rec.Provider, &rec.Success, &rec.Content,
		&rec.Error, &rec.AttemptsJSON, &rec.Pending, &createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning generation row: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}
