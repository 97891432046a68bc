package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"outreach/internal/domain"
	"outreach/internal/store"
)

func (s *Store) InsertBroadcast(ctx context.Context, in store.BroadcastInsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO broadcasts (id, content_id, segment_id, channels, scheduled_at, status, total_recipients, delivered, failed, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,0,$8,$8)
	`, in.ID, in.ContentID, in.SegmentID, channelStrings(in.Channels), in.ScheduledAt,
		domain.BroadcastScheduled, in.TotalRecipients, in.Now)
	return err
}

func (s *Store) GetBroadcast(ctx context.Context, id string) (store.Broadcast, bool, error) {
	var bc store.Broadcast
	var channels []string
	row := s.DB.QueryRow(ctx, `
		SELECT id, content_id, segment_id, channels, scheduled_at, status,
		       total_recipients, delivered, failed, created_at, updated_at
		FROM broadcasts WHERE id=$1
	`, id)
	err := row.Scan(&bc.ID, &bc.ContentID, &bc.SegmentID, &channels, &bc.ScheduledAt,
		&bc.Status, &bc.TotalRecipients, &bc.Delivered, &bc.Failed, &bc.CreatedAt, &bc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Broadcast{}, false, nil
		}
		return store.Broadcast{}, false, err
	}
	bc.Channels = channelValues(channels)
	return bc, true, nil
}

func (s *Store) MarkBroadcastSending(ctx context.Context, id string, now time.Time) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE broadcasts SET status=$2, updated_at=$3 WHERE id=$1
	`, id, domain.BroadcastSending, now)
	return err
}

func (s *Store) FinalizeBroadcast(ctx context.Context, in store.BroadcastFinalize) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE broadcasts SET status=$2, delivered=$3, failed=$4, updated_at=$5 WHERE id=$1
	`, in.ID, in.Status, in.Delivered, in.Failed, in.Now)
	return err
}

// ListDueBroadcasts returns scheduled fan-outs whose time has come. The
// scheduler enqueues these for the worker.
func (s *Store) ListDueBroadcasts(ctx context.Context, now time.Time, limit int) ([]store.Broadcast, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, content_id, segment_id, channels, scheduled_at, status,
		       total_recipients, delivered, failed, created_at, updated_at
		FROM broadcasts
		WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at
		LIMIT $3
	`, domain.BroadcastScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Broadcast
	for rows.Next() {
		var bc store.Broadcast
		var channels []string
		if err := rows.Scan(&bc.ID, &bc.ContentID, &bc.SegmentID, &channels, &bc.ScheduledAt,
			&bc.Status, &bc.TotalRecipients, &bc.Delivered, &bc.Failed, &bc.CreatedAt, &bc.UpdatedAt); err != nil {
			return nil, err
		}
		bc.Channels = channelValues(channels)
		out = append(out, bc)
	}
	return out, rows.Err()
}

// HasNonFailedDelivery is the idempotence check for re-execution: a pair with
// a queued or sent log has already been handled and must not be re-delivered.
func (s *Store) HasNonFailedDelivery(ctx context.Context, broadcastID, contactID string, ch domain.Channel) (bool, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT 1 FROM delivery_logs
		WHERE broadcast_id=$1 AND contact_id=$2 AND channel=$3 AND status <> $4
		LIMIT 1
	`, broadcastID, contactID, ch, domain.DeliveryFailed)
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

func (s *Store) InsertDeliveryLog(ctx context.Context, in store.DeliveryInsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO delivery_logs (id, broadcast_id, contact_id, channel, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
	`, in.ID, in.BroadcastID, in.ContactID, in.Channel, domain.DeliveryQueued, in.Now)
	return err
}

func (s *Store) MarkDeliveryOutcome(ctx context.Context, in store.DeliveryOutcome) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE delivery_logs SET status=$2, last_error=$3, updated_at=$4 WHERE id=$1
	`, in.ID, in.Status, nullIfEmpty(in.LastError), in.Now)
	return err
}
