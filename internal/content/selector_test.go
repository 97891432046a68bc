package content

import (
	"testing"

	"outreach/internal/domain"
)

func TestSelectVersionExactMatch(t *testing.T) {
	variants := []domain.Variant{
		{ID: "v1", Channel: domain.ChannelEmail, Language: "en"},
		{ID: "v2", Channel: domain.ChannelEmail, Language: "fr"},
		{ID: "v3", Channel: domain.ChannelSMS, Language: "fr"},
	}
	v, ok := SelectVersion(variants, domain.ChannelEmail, "fr")
	if !ok || v.ID != "v2" {
		t.Fatalf("expected v2, got %+v ok=%v", v, ok)
	}
}

func TestSelectVersionFallsBackToDefaultLanguage(t *testing.T) {
	// Variants exist for (email, fr) and (email, en); a request for
	// (email, es) must land on the default-language variant, not fr.
	variants := []domain.Variant{
		{ID: "fr", Channel: domain.ChannelEmail, Language: "fr"},
		{ID: "en", Channel: domain.ChannelEmail, Language: "en"},
	}
	v, ok := SelectVersion(variants, domain.ChannelEmail, "es")
	if !ok || v.ID != "en" {
		t.Fatalf("expected en variant, got %+v ok=%v", v, ok)
	}
}

func TestSelectVersionAnyLanguageSameChannel(t *testing.T) {
	variants := []domain.Variant{
		{ID: "bn", Channel: domain.ChannelSMS, Language: "bn"},
	}
	v, ok := SelectVersion(variants, domain.ChannelSMS, "es")
	if !ok || v.ID != "bn" {
		t.Fatalf("expected bn variant for same channel, got %+v ok=%v", v, ok)
	}
}

func TestSelectVersionNoChannelMatch(t *testing.T) {
	variants := []domain.Variant{
		{ID: "v1", Channel: domain.ChannelEmail, Language: "en"},
	}
	if _, ok := SelectVersion(variants, domain.ChannelTelegram, "en"); ok {
		t.Fatalf("expected no match for telegram")
	}
	if _, ok := SelectVersion(nil, domain.ChannelEmail, "en"); ok {
		t.Fatalf("expected no match on empty variant list")
	}
}
