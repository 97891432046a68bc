package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"outreach/internal/domain"
	"outreach/internal/store"
)

func (s *Store) GetSequence(ctx context.Context, id string) (store.Sequence, bool, error) {
	var seq store.Sequence
	var status string
	row := s.DB.QueryRow(ctx, `SELECT id, name, status FROM sequences WHERE id=$1`, id)
	err := row.Scan(&seq.ID, &seq.Name, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Sequence{}, false, nil
		}
		return store.Sequence{}, false, err
	}
	seq.Active = status == "active"
	return seq, true, nil
}

func (s *Store) GetStep(ctx context.Context, sequenceID string, stepNumber int) (store.SequenceStep, bool, error) {
	var st store.SequenceStep
	var channels []string
	row := s.DB.QueryRow(ctx, `
		SELECT sequence_id, step_number, delay_days, COALESCE(subject,''), body, language, channels
		FROM sequence_steps WHERE sequence_id=$1 AND step_number=$2
	`, sequenceID, stepNumber)
	err := row.Scan(&st.SequenceID, &st.StepNumber, &st.DelayDays, &st.Subject, &st.Body, &st.Language, &channels)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.SequenceStep{}, false, nil
		}
		return store.SequenceStep{}, false, err
	}
	st.Channels = channelValues(channels)
	return st, true, nil
}

func (s *Store) FindEnrollment(ctx context.Context, sequenceID, contactID string) (store.Enrollment, bool, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, sequence_id, contact_id, current_step, status, next_send_at, failed_attempts
		FROM sequence_enrollments WHERE sequence_id=$1 AND contact_id=$2
	`, sequenceID, contactID)
	return scanEnrollment(row)
}

func (s *Store) InsertEnrollment(ctx context.Context, in store.EnrollmentInsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO sequence_enrollments (id, sequence_id, contact_id, current_step, status, next_send_at, failed_attempts, created_at, updated_at)
		VALUES ($1,$2,$3,0,$4,$5,0,$6,$6)
	`, in.ID, in.SequenceID, in.ContactID, domain.EnrollmentActive, in.NextSendAt, in.Now)
	if err != nil {
		// The unique (sequence, contact) pair backs enrollment idempotence;
		// map a violation to the domain error so racing callers see the same
		// failure as a pre-checked duplicate.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("sequence %s contact %s: %w", in.SequenceID, in.ContactID, domain.ErrAlreadyEnrolled)
		}
		return err
	}
	return nil
}

func (s *Store) ListDueEnrollments(ctx context.Context, now time.Time) ([]store.Enrollment, error) {
	// The sequence-level pause gates progression without touching
	// enrollment rows.
	rows, err := s.DB.Query(ctx, `
		SELECT e.id, e.sequence_id, e.contact_id, e.current_step, e.status, e.next_send_at, e.failed_attempts
		FROM sequence_enrollments e
		JOIN sequences sq ON sq.id = e.sequence_id
		WHERE e.status=$1 AND sq.status='active'
		  AND e.next_send_at IS NOT NULL AND e.next_send_at <= $2
		ORDER BY e.next_send_at
	`, domain.EnrollmentActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Enrollment
	for rows.Next() {
		enr, _, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, enr)
	}
	return out, rows.Err()
}

func (s *Store) AdvanceEnrollment(ctx context.Context, in store.EnrollmentAdvance) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE sequence_enrollments
		SET current_step=$2, status=$3, next_send_at=$4, failed_attempts=0, updated_at=$5
		WHERE id=$1
	`, in.ID, in.CurrentStep, in.Status, in.NextSendAt, in.Now)
	return err
}

func (s *Store) RecordStepFailure(ctx context.Context, in store.EnrollmentFailure) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE sequence_enrollments
		SET failed_attempts=$2, status=$3, updated_at=$4
		WHERE id=$1
	`, in.ID, in.FailedAttempts, in.Status, in.Now)
	return err
}

func scanEnrollment(row pgx.Row) (store.Enrollment, bool, error) {
	var enr store.Enrollment
	err := row.Scan(&enr.ID, &enr.SequenceID, &enr.ContactID, &enr.CurrentStep,
		&enr.Status, &enr.NextSendAt, &enr.FailedAttempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Enrollment{}, false, nil
		}
		return store.Enrollment{}, false, err
	}
	return enr, true, nil
}
