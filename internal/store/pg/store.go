package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach/internal/domain"
	"outreach/internal/store"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) GetContent(ctx context.Context, id string) (domain.ContentItem, bool, error) {
	var c domain.ContentItem
	row := s.DB.QueryRow(ctx, `
		SELECT id, title, body, language, type, priority, status
		FROM content_items WHERE id=$1
	`, id)
	err := row.Scan(&c.ID, &c.Title, &c.Body, &c.Language, &c.Type, &c.Priority, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ContentItem{}, false, nil
		}
		return domain.ContentItem{}, false, err
	}
	return c, true, nil
}

func (s *Store) MarkContentStatus(ctx context.Context, id string, status domain.ContentStatus, now time.Time) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE content_items SET status=$2, updated_at=$3 WHERE id=$1
	`, id, status, now)
	return err
}

func (s *Store) SegmentExists(ctx context.Context, id string) (bool, error) {
	row := s.DB.QueryRow(ctx, `SELECT 1 FROM segments WHERE id=$1`, id)
	var one int
	err := row.Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListActiveSegmentContacts resolves segment membership fresh on every call:
// contact channel availability changes independently of the segment.
func (s *Store) ListActiveSegmentContacts(ctx context.Context, segmentID string) ([]domain.Contact, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT c.id, c.name, COALESCE(c.email,''), COALESCE(c.phone,''),
		       COALESCE(c.whatsapp_handle,''), COALESCE(c.telegram_handle,''),
		       COALESCE(c.signal_address,''), COALESCE(c.language,''), c.active
		FROM contacts c
		JOIN segment_contacts sc ON sc.contact_id = c.id
		WHERE sc.segment_id=$1 AND c.active
		ORDER BY c.id
	`, segmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone,
			&c.WhatsAppHandle, &c.TelegramHandle, &c.SignalAddress,
			&c.Language, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContact(ctx context.Context, id string) (domain.Contact, bool, error) {
	var c domain.Contact
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(email,''), COALESCE(phone,''),
		       COALESCE(whatsapp_handle,''), COALESCE(telegram_handle,''),
		       COALESCE(signal_address,''), COALESCE(language,''), active
		FROM contacts WHERE id=$1
	`, id)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.WhatsAppHandle, &c.TelegramHandle, &c.SignalAddress,
		&c.Language, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, false, nil
		}
		return domain.Contact{}, false, err
	}
	return c, true, nil
}

func (s *Store) ListVariants(ctx context.Context, contentID string) ([]domain.Variant, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, content_id, channel, language, COALESCE(subject,''), body, is_generated
		FROM content_variants WHERE content_id=$1
		ORDER BY channel, language
	`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ContentID, &v.Channel, &v.Language, &v.Subject, &v.Body, &v.Generated); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertVariant is keyed by the (content, channel, language) triple:
// re-generation replaces the body rather than adding a row.
func (s *Store) UpsertVariant(ctx context.Context, in store.VariantUpsert) (string, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO content_variants (id, content_id, channel, language, subject, body, is_generated, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		ON CONFLICT (content_id, channel, language)
		DO UPDATE SET subject=EXCLUDED.subject, body=EXCLUDED.body,
		              is_generated=EXCLUDED.is_generated, updated_at=EXCLUDED.updated_at
		RETURNING id
	`, in.ID, in.ContentID, in.Channel, in.Language, nullIfEmpty(in.Subject), in.Body, in.Generated, in.Now)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func channelStrings(channels []domain.Channel) []string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = string(ch)
	}
	return out
}

func channelValues(raw []string) []domain.Channel {
	out := make([]domain.Channel, len(raw))
	for i, ch := range raw {
		out[i] = domain.Channel(ch)
	}
	return out
}
