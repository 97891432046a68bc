package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"outreach/internal/store"
)

func (s *Store) GetDerivative(ctx context.Context, id string) (store.Derivative, bool, error) {
	var d store.Derivative
	row := s.DB.QueryRow(ctx, `
		SELECT id, content_id, type, language, body, is_generated
		FROM derivatives WHERE id=$1
	`, id)
	err := row.Scan(&d.ID, &d.ContentID, &d.Type, &d.Language, &d.Body, &d.Generated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Derivative{}, false, nil
		}
		return store.Derivative{}, false, err
	}
	return d, true, nil
}

func (s *Store) FindTranslation(ctx context.Context, derivativeID, language string) (store.Translation, bool, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, derivative_id, language, body, status, review_pass, is_generated, COALESCE(reviewer_notes,'')
		FROM translations WHERE derivative_id=$1 AND language=$2
	`, derivativeID, language)
	return scanTranslation(row)
}

func (s *Store) GetTranslation(ctx context.Context, id string) (store.Translation, bool, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, derivative_id, language, body, status, review_pass, is_generated, COALESCE(reviewer_notes,'')
		FROM translations WHERE id=$1
	`, id)
	return scanTranslation(row)
}

// UpsertTranslation is keyed by the (derivative, language) pair: concurrent
// generation for the same pair is last-write-wins on the body, never a
// duplicate row.
func (s *Store) UpsertTranslation(ctx context.Context, in store.TranslationUpsert) (string, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO translations (id, derivative_id, language, body, status, review_pass, is_generated, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (derivative_id, language)
		DO UPDATE SET body=EXCLUDED.body, status=EXCLUDED.status,
		              review_pass=EXCLUDED.review_pass, is_generated=EXCLUDED.is_generated,
		              updated_at=EXCLUDED.updated_at
		RETURNING id
	`, in.ID, in.DerivativeID, in.Language, in.Body, in.Status, in.ReviewPass, in.Generated, in.Now)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateTranslationReview(ctx context.Context, in store.TranslationReviewUpdate) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE translations
		SET body=$2, status=$3, review_pass=$4, reviewer_notes=$5, updated_at=$6
		WHERE id=$1
	`, in.ID, in.Body, in.Status, in.ReviewPass, nullIfEmpty(in.ReviewerNotes), in.Now)
	return err
}

func scanTranslation(row pgx.Row) (store.Translation, bool, error) {
	var tr store.Translation
	err := row.Scan(&tr.ID, &tr.DerivativeID, &tr.Language, &tr.Body,
		&tr.Status, &tr.ReviewPass, &tr.Generated, &tr.ReviewerNotes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Translation{}, false, nil
		}
		return store.Translation{}, false, err
	}
	return tr, true, nil
}
