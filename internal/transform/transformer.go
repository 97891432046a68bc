package transform

import (
	"context"
	"fmt"

	"outreach/internal/domain"
)

// Result is what every transformation returns. Generated=false means the
// text is the untouched original: the AI collaborator is optional and
// fallible by contract, so callers never see an error from it.
type Result struct {
	Text      string
	Generated bool
}

type Transformer interface {
	Transform(ctx context.Context, systemPrompt, text, extra string) Result
}

// AdaptPrompt builds the system prompt for rewriting master content to fit a
// channel's constraints.
func AdaptPrompt(ch domain.Channel) string {
	base := "You adapt messages for a distributed field organization. Preserve meaning and tone. Return only the rewritten text."
	switch ch {
	case domain.ChannelSMS:
		return base + " Rewrite for SMS: at most 300 characters, no markdown, no links unless present in the source."
	case domain.ChannelEmail:
		return base + " Rewrite for email: keep paragraphs short, open with a one-line summary."
	case domain.ChannelWhatsApp, domain.ChannelTelegram, domain.ChannelSignal:
		return base + " Rewrite for a messaging app: conversational, under 1000 characters, emoji acceptable but sparing."
	case domain.ChannelSocial:
		return base + " Rewrite for a public social post: under 280 characters, no recipient names, no sensitive locations."
	}
	return base
}

// TranslatePrompt builds the system prompt for translating text into the
// target language.
func TranslatePrompt(lang string) string {
	return fmt.Sprintf("Translate the following text into %s. Preserve scripture references, proper nouns, and formatting. Return only the translation.", lang)
}
