package content

import "outreach/internal/domain"

// SelectVersion picks the best channel variant for a (channel, language)
// target. Ordered fallback, first match wins:
//
//  1. exact (channel, language) match
//  2. same channel, default language
//  3. same channel, any language
//
// Channel fit beats language fit: an unlocalized message in the right format
// is more usable than a localized one in the wrong format. When nothing
// matches the caller falls back to the master content body.
func SelectVersion(variants []domain.Variant, ch domain.Channel, lang string) (domain.Variant, bool) {
	for _, v := range variants {
		if v.Channel == ch && v.Language == lang {
			return v, true
		}
	}
	for _, v := range variants {
		if v.Channel == ch && v.Language == domain.DefaultLanguage {
			return v, true
		}
	}
	for _, v := range variants {
		if v.Channel == ch {
			return v, true
		}
	}
	return domain.Variant{}, false
}
