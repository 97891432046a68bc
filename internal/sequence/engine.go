package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach/internal/channel"
	"outreach/internal/domain"
	"outreach/internal/metrics"
	"outreach/internal/observability"
	"outreach/internal/store"
	"outreach/internal/transform"
	"outreach/internal/transport"
	"outreach/internal/util"
)

type Store interface {
	GetSequence(ctx context.Context, id string) (store.Sequence, bool, error)
	GetStep(ctx context.Context, sequenceID string, stepNumber int) (store.SequenceStep, bool, error)
	FindEnrollment(ctx context.Context, sequenceID, contactID string) (store.Enrollment, bool, error)
	InsertEnrollment(ctx context.Context, in store.EnrollmentInsert) error
	ListDueEnrollments(ctx context.Context, now time.Time) ([]store.Enrollment, error)
	AdvanceEnrollment(ctx context.Context, in store.EnrollmentAdvance) error
	RecordStepFailure(ctx context.Context, in store.EnrollmentFailure) error
	GetContact(ctx context.Context, id string) (domain.Contact, bool, error)
}

type Engine struct {
	Store       Store
	Deliverer   transport.Deliverer
	Transformer transform.Transformer
	Sink        metrics.Sink

	// MaxStepAttempts bounds retries of a fully-failed step. The enrollment
	// stays due (same nextSendAt) and is retried on subsequent polls; once
	// the attempt budget is spent it is paused for operator intervention.
	MaxStepAttempts int
}

type Stats struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Completed int `json:"completed"`
}

// Enroll registers a contact at step 0 of a sequence. The (sequence, contact)
// pair is unique: double enrollment is an error, not a second row.
func (e *Engine) Enroll(ctx context.Context, sequenceID, contactID string) (string, error) {
	seq, found, err := e.Store.GetSequence(ctx, sequenceID)
	if err != nil {
		return "", err
	}
	if !found || !seq.Active {
		return "", fmt.Errorf("sequence %s: %w", sequenceID, domain.ErrSequenceNotActive)
	}

	if _, exists, err := e.Store.FindEnrollment(ctx, sequenceID, contactID); err != nil {
		return "", err
	} else if exists {
		return "", fmt.Errorf("sequence %s contact %s: %w", sequenceID, contactID, domain.ErrAlreadyEnrolled)
	}

	now := util.NowUTC()
	nextSendAt := now
	if step, ok, err := e.Store.GetStep(ctx, sequenceID, 1); err != nil {
		return "", err
	} else if ok {
		nextSendAt = now.AddDate(0, 0, step.DelayDays)
	}

	id := util.NewEnrollmentID()
	if err := e.Store.InsertEnrollment(ctx, store.EnrollmentInsert{
		ID:         id,
		SequenceID: sequenceID,
		ContactID:  contactID,
		NextSendAt: nextSendAt,
		Now:        now,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// ProcessDue advances every active enrollment whose nextSendAt has passed by
// exactly one step. An enrollment advances only when at least one channel of
// the step succeeded; a fully-failed step stays due and is retried on the
// next poll until MaxStepAttempts is exhausted.
func (e *Engine) ProcessDue(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats

	due, err := e.Store.ListDueEnrollments(ctx, now)
	if err != nil {
		return stats, err
	}

	for _, enr := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Processed++
		if err := e.processOne(ctx, enr, now, &stats); err != nil {
			slog.Error("sequence enrollment processing failed",
				"err", err,
				"enrollment_id", enr.ID,
				"sequence_id", enr.SequenceID,
			)
		}
	}
	return stats, nil
}

func (e *Engine) processOne(ctx context.Context, enr store.Enrollment, now time.Time, stats *Stats) error {
	step, found, err := e.Store.GetStep(ctx, enr.SequenceID, enr.CurrentStep+1)
	if err != nil {
		return err
	}
	if !found {
		// Already exhausted: no step to deliver, close the enrollment out.
		stats.Completed++
		return e.Store.AdvanceEnrollment(ctx, store.EnrollmentAdvance{
			ID:          enr.ID,
			CurrentStep: enr.CurrentStep,
			Status:      domain.EnrollmentCompleted,
			NextSendAt:  nil,
			Now:         now,
		})
	}

	contact, found, err := e.Store.GetContact(ctx, enr.ContactID)
	if err != nil {
		return err
	}
	if !found || !contact.Active {
		return e.Store.AdvanceEnrollment(ctx, store.EnrollmentAdvance{
			ID:          enr.ID,
			CurrentStep: enr.CurrentStep,
			Status:      domain.EnrollmentExited,
			NextSendAt:  nil,
			Now:         now,
		})
	}

	anySuccess := false
	for _, ch := range step.Channels {
		if !channel.Reachable(contact, ch) {
			continue
		}

		body := step.Body
		if contact.Language != "" && contact.Language != step.Language {
			body = e.Transformer.Transform(ctx, transform.TranslatePrompt(contact.Language), body, "").Text
		}
		body = e.Transformer.Transform(ctx, transform.AdaptPrompt(ch), body, "").Text

		out := e.Deliverer.Deliver(ctx, transport.DeliveryRequest{
			Channel:     ch,
			Address:     channel.Address(contact, ch),
			ContactName: contact.Name,
			Subject:     step.Subject,
			Body:        body,
			Language:    contact.Language,
		})
		if out.Success {
			anySuccess = true
			stats.Sent++
			observability.SequenceSteps.WithLabelValues("sent").Inc()
		} else {
			stats.Failed++
			observability.SequenceSteps.WithLabelValues("failed").Inc()
		}
	}

	if !anySuccess {
		return e.recordFailure(ctx, enr, step.StepNumber, now)
	}

	current := enr.CurrentStep + 1
	next, hasNext, err := e.Store.GetStep(ctx, enr.SequenceID, current+1)
	if err != nil {
		return err
	}
	adv := store.EnrollmentAdvance{
		ID:          enr.ID,
		CurrentStep: current,
		Status:      domain.EnrollmentActive,
		Now:         now,
	}
	if hasNext {
		at := now.AddDate(0, 0, next.DelayDays)
		adv.NextSendAt = &at
	} else {
		// Final step delivered: completed in the same pass, no extra poll.
		adv.Status = domain.EnrollmentCompleted
		stats.Completed++
	}
	return e.Store.AdvanceEnrollment(ctx, adv)
}

func (e *Engine) recordFailure(ctx context.Context, enr store.Enrollment, stepNumber int, now time.Time) error {
	attempts := enr.FailedAttempts + 1
	status := domain.EnrollmentActive
	sev := domain.SeverityWarning
	msg := fmt.Sprintf("sequence step %d failed on every channel for enrollment %s", stepNumber, enr.ID)

	if e.MaxStepAttempts > 0 && attempts >= e.MaxStepAttempts {
		status = domain.EnrollmentPaused
		sev = domain.SeverityError
		msg = fmt.Sprintf("enrollment %s paused after %d failed attempts at step %d", enr.ID, attempts, stepNumber)
	}

	e.Sink.RaiseAlert(ctx, sev, "sequence_step_failure", msg, map[string]any{
		"enrollmentId": enr.ID,
		"sequenceId":   enr.SequenceID,
		"contactId":    enr.ContactID,
		"stepNumber":   stepNumber,
		"attempts":     attempts,
	})

	// nextSendAt is left untouched: the enrollment stays due and the next
	// poll retries the same step.
	return e.Store.RecordStepFailure(ctx, store.EnrollmentFailure{
		ID:             enr.ID,
		FailedAttempts: attempts,
		Status:         status,
		Now:            now,
	})
}
