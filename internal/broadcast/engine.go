package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/channel"
	"outreach/internal/content"
	"outreach/internal/domain"
	"outreach/internal/metrics"
	"outreach/internal/observability"
	"outreach/internal/store"
	"outreach/internal/transport"
	"outreach/internal/util"
)

type Store interface {
	GetContent(ctx context.Context, id string) (domain.ContentItem, bool, error)
	MarkContentStatus(ctx context.Context, id string, status domain.ContentStatus, now time.Time) error
	SegmentExists(ctx context.Context, id string) (bool, error)
	ListActiveSegmentContacts(ctx context.Context, segmentID string) ([]domain.Contact, error)
	ListVariants(ctx context.Context, contentID string) ([]domain.Variant, error)

	InsertBroadcast(ctx context.Context, in store.BroadcastInsert) error
	GetBroadcast(ctx context.Context, id string) (store.Broadcast, bool, error)
	MarkBroadcastSending(ctx context.Context, id string, now time.Time) error
	FinalizeBroadcast(ctx context.Context, in store.BroadcastFinalize) error

	HasNonFailedDelivery(ctx context.Context, broadcastID, contactID string, ch domain.Channel) (bool, error)
	InsertDeliveryLog(ctx context.Context, in store.DeliveryInsert) error
	MarkDeliveryOutcome(ctx context.Context, in store.DeliveryOutcome) error
}

type Engine struct {
	Store     Store
	Deliverer transport.Deliverer
	Sink      metrics.Sink
}

// Result aggregates one fan-out execution. Skipped covers both unreachable
// (recipient, channel) pairs and pairs already delivered by a previous
// execution of the same fan-out.
type Result struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CreateFanOut records a scheduled/triggered distribution of a content item
// to a segment. The recipient count is a frozen snapshot of the intended
// audience at scheduling time; later membership changes do not touch it.
func (e *Engine) CreateFanOut(ctx context.Context, contentID, segmentID string, channels []domain.Channel, scheduledAt *time.Time) (string, int, error) {
	if _, found, err := e.Store.GetContent(ctx, contentID); err != nil {
		return "", 0, err
	} else if !found {
		return "", 0, fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}
	if exists, err := e.Store.SegmentExists(ctx, segmentID); err != nil {
		return "", 0, err
	} else if !exists {
		return "", 0, fmt.Errorf("segment %s: %w", segmentID, domain.ErrNotFound)
	}

	contacts, err := e.Store.ListActiveSegmentContacts(ctx, segmentID)
	if err != nil {
		return "", 0, err
	}
	total := 0
	for _, c := range contacts {
		if channel.ReachableAny(c, channels) {
			total++
		}
	}

	id := util.NewBroadcastID()
	if err := e.Store.InsertBroadcast(ctx, store.BroadcastInsert{
		ID:              id,
		ContentID:       contentID,
		SegmentID:       segmentID,
		Channels:        channels,
		ScheduledAt:     scheduledAt,
		TotalRecipients: total,
		Now:             util.NowUTC(),
	}); err != nil {
		return "", 0, err
	}
	return id, total, nil
}

// Execute runs the recipient x channel cross-product for a fan-out:
// sequential, single-pass, counters aggregated in memory. Delivery logs are
// the unit of idempotence: a pair with an existing non-failed log is
// skipped, so re-running an interrupted or partially-failed fan-out retries
// only what has not been sent.
func (e *Engine) Execute(ctx context.Context, fanOutID string) (Result, error) {
	var res Result

	bc, found, err := e.Store.GetBroadcast(ctx, fanOutID)
	if err != nil {
		return res, err
	}
	if !found {
		return res, fmt.Errorf("broadcast %s: %w", fanOutID, domain.ErrNotFound)
	}

	item, found, err := e.Store.GetContent(ctx, bc.ContentID)
	if err != nil {
		return res, err
	}
	if !found {
		return res, fmt.Errorf("content %s: %w", bc.ContentID, domain.ErrNotFound)
	}

	if err := e.Store.MarkBroadcastSending(ctx, fanOutID, util.NowUTC()); err != nil {
		return res, err
	}

	// Execution resolves membership fresh: it reflects who is reachable now,
	// not the frozen snapshot taken at scheduling time.
	contacts, err := e.Store.ListActiveSegmentContacts(ctx, bc.SegmentID)
	if err != nil {
		return res, err
	}
	variants, err := e.Store.ListVariants(ctx, bc.ContentID)
	if err != nil {
		return res, err
	}

	for _, c := range contacts {
		for _, ch := range bc.Channels {
			if ctx.Err() != nil {
				// Interrupted mid-loop: persist what we have and mark the
				// fan-out partial rather than leaving it stuck in sending.
				// The writes run on a detached context; the canceled one
				// would refuse them.
				finErr := e.finalize(context.WithoutCancel(ctx), bc, domain.BroadcastPartial, res)
				if finErr != nil {
					slog.Error("finalize after cancellation failed", "err", finErr, "broadcast_id", fanOutID)
				}
				return res, ctx.Err()
			}

			if !channel.Reachable(c, ch) {
				res.Skipped++
				continue
			}

			done, err := e.Store.HasNonFailedDelivery(ctx, fanOutID, c.ID, ch)
			if err != nil {
				return res, err
			}
			if done {
				res.Skipped++
				continue
			}

			if err := e.deliverOne(ctx, bc, item, variants, c, ch, &res); err != nil {
				return res, err
			}
		}
	}

	status := deriveStatus(res.Delivered, res.Failed)
	if err := e.finalize(ctx, bc, status, res); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) deliverOne(ctx context.Context, bc store.Broadcast, item domain.ContentItem, variants []domain.Variant, c domain.Contact, ch domain.Channel, res *Result) error {
	subject, body, lang := item.Title, item.Body, item.Language
	if v, ok := content.SelectVersion(variants, ch, c.Language); ok {
		subject, body, lang = v.Subject, v.Body, v.Language
	}

	logID := util.NewDeliveryID()
	if err := e.Store.InsertDeliveryLog(ctx, store.DeliveryInsert{
		ID:          logID,
		BroadcastID: bc.ID,
		ContactID:   c.ID,
		Channel:     ch,
		Now:         util.NowUTC(),
	}); err != nil {
		return err
	}

	out := e.Deliverer.Deliver(ctx, transport.DeliveryRequest{
		Channel:     ch,
		Address:     channel.Address(c, ch),
		ContactName: c.Name,
		Subject:     subject,
		Body:        body,
		Priority:    item.Priority,
		Language:    lang,
		BroadcastID: bc.ID,
		ContentID:   item.ID,
	})

	status := domain.DeliverySent
	if !out.Success {
		status = domain.DeliveryFailed
	}
	if err := e.Store.MarkDeliveryOutcome(ctx, store.DeliveryOutcome{
		ID:        logID,
		Status:    status,
		LastError: out.Error,
		Now:       util.NowUTC(),
	}); err != nil {
		return err
	}

	if out.Success {
		res.Delivered++
		observability.Deliveries.WithLabelValues(string(ch), "sent").Inc()
	} else {
		res.Failed++
		observability.Deliveries.WithLabelValues(string(ch), "failed").Inc()
	}
	return nil
}

func (e *Engine) finalize(ctx context.Context, bc store.Broadcast, status domain.BroadcastStatus, res Result) error {
	if err := e.Store.FinalizeBroadcast(ctx, store.BroadcastFinalize{
		ID:        bc.ID,
		Status:    status,
		Delivered: res.Delivered,
		Failed:    res.Failed,
		Now:       util.NowUTC(),
	}); err != nil {
		return err
	}
	observability.FanOuts.WithLabelValues(string(status)).Inc()
	e.Sink.RecordDeliveries(ctx, util.NowUTC(), res.Delivered, res.Failed)

	if res.Failed > 0 {
		sev := domain.SeverityWarning
		if res.Failed > res.Delivered {
			sev = domain.SeverityError
		}
		e.Sink.RaiseAlert(ctx, sev, "broadcast_failures",
			fmt.Sprintf("broadcast %s finished with %d failed deliveries", bc.ID, res.Failed),
			map[string]any{
				"broadcastId": bc.ID,
				"contentId":   bc.ContentID,
				"delivered":   res.Delivered,
				"failed":      res.Failed,
			})
	}
	return nil
}

// ProcessUrgent bypasses scheduling: create-and-execute one fan-out per
// segment sequentially, then mark the content sent.
func (e *Engine) ProcessUrgent(ctx context.Context, contentID string, segmentIDs []string, channels []domain.Channel) (Result, error) {
	var total Result
	for _, segID := range segmentIDs {
		id, _, err := e.CreateFanOut(ctx, contentID, segID, channels, nil)
		if err != nil {
			return total, err
		}
		res, err := e.Execute(ctx, id)
		if err != nil {
			return total, err
		}
		total.Delivered += res.Delivered
		total.Failed += res.Failed
		total.Skipped += res.Skipped
	}
	if err := e.Store.MarkContentStatus(ctx, contentID, domain.ContentSent, util.NowUTC()); err != nil {
		return total, err
	}
	return total, nil
}

// deriveStatus maps final counters to the aggregate status: any failure with
// no success is failed, clean success is sent, everything else (including a
// mixed outcome) is partial.
func deriveStatus(delivered, failed int) domain.BroadcastStatus {
	switch {
	case failed == 0 && delivered > 0:
		return domain.BroadcastSent
	case delivered == 0 && failed > 0:
		return domain.BroadcastFailed
	default:
		return domain.BroadcastPartial
	}
}
