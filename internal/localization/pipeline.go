package localization

import (
	"context"
	"fmt"
	"sync"

	"outreach/internal/domain"
	"outreach/internal/metrics"
	"outreach/internal/store"
	"outreach/internal/transform"
	"outreach/internal/util"
)

type Store interface {
	GetDerivative(ctx context.Context, id string) (store.Derivative, bool, error)
	FindTranslation(ctx context.Context, derivativeID, language string) (store.Translation, bool, error)
	GetTranslation(ctx context.Context, id string) (store.Translation, bool, error)
	UpsertTranslation(ctx context.Context, in store.TranslationUpsert) (string, error)
	UpdateTranslationReview(ctx context.Context, in store.TranslationReviewUpdate) error

	GetContent(ctx context.Context, id string) (domain.ContentItem, bool, error)
	UpsertVariant(ctx context.Context, in store.VariantUpsert) (string, error)
}

type Pipeline struct {
	Store       Store
	Transformer transform.Transformer
	Cache       Cache
	Sink        metrics.Sink
}

const finalReviewPass = 3

// Generate produces the translation of a derivative into the target language
// and enters it into the review workflow at pass 1. Idempotent by
// (derivative, language): an existing translation is returned as-is. A
// transformation failure still produces a record (the original untranslated
// body flagged failed), never a silent gap.
func (p *Pipeline) Generate(ctx context.Context, derivativeID, targetLanguage string) (string, error) {
	d, found, err := p.Store.GetDerivative(ctx, derivativeID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("derivative %s: %w", derivativeID, domain.ErrNotFound)
	}

	if existing, found, err := p.Store.FindTranslation(ctx, derivativeID, targetLanguage); err != nil {
		return "", err
	} else if found {
		return existing.ID, nil
	}

	key := derivativeID + ":" + targetLanguage
	text, cached := p.Cache.Get(key)
	generated := cached
	if !cached {
		res := p.Transformer.Transform(ctx, transform.TranslatePrompt(targetLanguage), d.Body, "")
		text, generated = res.Text, res.Generated
		if generated {
			p.Cache.Set(key, text)
		}
	}

	up := store.TranslationUpsert{
		ID:           util.NewTranslationID(),
		DerivativeID: derivativeID,
		Language:     targetLanguage,
		Body:         text,
		Status:       domain.TranslationAIDraft,
		ReviewPass:   1,
		Generated:    generated,
		Now:          util.NowUTC(),
	}
	if !generated {
		up.Body = d.Body
		up.Status = domain.TranslationFailed
	}

	id, err := p.Store.UpsertTranslation(ctx, up)
	if err != nil {
		return "", err
	}
	if generated {
		p.Sink.RecordTranslations(ctx, util.NowUTC(), 1, 0)
	} else {
		p.Sink.RecordTranslations(ctx, util.NowUTC(), 0, 1)
	}
	return id, nil
}

// SubmitReview applies one reviewer action to a translation in the 3-pass
// workflow (AI draft, local-speaker review, quality review). Approved is
// terminal. A reject from any pass restarts the full sequence; the rejecting
// reviewer's notes survive the restart. An edit belongs to the current pass
// and does not advance it. Notes are overwritten when supplied, preserved
// otherwise; only the latest note survives.
func (p *Pipeline) SubmitReview(ctx context.Context, translationID string, req domain.SubmitReviewRequest) error {
	tr, found, err := p.Store.GetTranslation(ctx, translationID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("translation %s: %w", translationID, domain.ErrNotFound)
	}
	if tr.Status == domain.TranslationApproved {
		return fmt.Errorf("translation %s already approved: %w", translationID, domain.ErrInvalidTransition)
	}

	upd := store.TranslationReviewUpdate{
		ID:            translationID,
		Body:          tr.Body,
		ReviewPass:    tr.ReviewPass,
		ReviewerNotes: tr.ReviewerNotes,
		Now:           util.NowUTC(),
	}
	if req.Notes != "" {
		upd.ReviewerNotes = req.Notes
	}

	switch req.Action {
	case domain.ReviewApprove:
		upd.ReviewPass = tr.ReviewPass + 1
		if upd.ReviewPass >= finalReviewPass {
			upd.Status = domain.TranslationApproved
		} else {
			upd.Status = domain.TranslationReviewed
		}
	case domain.ReviewReject:
		upd.ReviewPass = 1
		upd.Status = domain.TranslationAIDraft
	case domain.ReviewEdit:
		upd.Body = req.EditedBody
		upd.Status = domain.TranslationReviewed
	default:
		return fmt.Errorf("review action %q: %w", req.Action, domain.ErrInvalidTransition)
	}

	return p.Store.UpdateTranslationReview(ctx, upd)
}

// AdaptForChannels generates channel variants of a content item. Adaptations
// for one item are independent reads of the same source text, so they run
// concurrently and join before persisting.
func (p *Pipeline) AdaptForChannels(ctx context.Context, contentID string, channels []domain.Channel) error {
	item, found, err := p.Store.GetContent(ctx, contentID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}

	results := make([]transform.Result, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch domain.Channel) {
			defer wg.Done()
			results[i] = p.Transformer.Transform(ctx, transform.AdaptPrompt(ch), item.Body, "")
		}(i, ch)
	}
	wg.Wait()

	for i, ch := range channels {
		if _, err := p.Store.UpsertVariant(ctx, store.VariantUpsert{
			ID:        util.NewVariantID(),
			ContentID: contentID,
			Channel:   ch,
			Language:  item.Language,
			Subject:   item.Title,
			Body:      results[i].Text,
			Generated: results[i].Generated,
			Now:       util.NowUTC(),
		}); err != nil {
			return err
		}
	}
	return nil
}
