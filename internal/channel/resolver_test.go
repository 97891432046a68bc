package channel

import (
	"testing"

	"outreach/internal/domain"
)

func TestReachableRequiresAddress(t *testing.T) {
	c := domain.Contact{Email: "ana@example.org", Phone: "+15550001111"}

	cases := []struct {
		ch   domain.Channel
		want bool
	}{
		{domain.ChannelEmail, true},
		{domain.ChannelSMS, true},
		{domain.ChannelWhatsApp, false},
		{domain.ChannelTelegram, false},
		{domain.ChannelSignal, false},
		{domain.ChannelSocial, true},
		{domain.Channel("carrier_pigeon"), false},
	}
	for _, tc := range cases {
		if got := Reachable(c, tc.ch); got != tc.want {
			t.Fatalf("Reachable(%s) = %v, want %v", tc.ch, got, tc.want)
		}
	}
}

func TestSocialAlwaysReachable(t *testing.T) {
	if !Reachable(domain.Contact{}, domain.ChannelSocial) {
		t.Fatalf("expected social to be reachable with no addresses")
	}
}

func TestReachableAny(t *testing.T) {
	c := domain.Contact{Phone: "+15550001111"}
	if !ReachableAny(c, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}) {
		t.Fatalf("expected reachable via sms")
	}
	if ReachableAny(c, []domain.Channel{domain.ChannelEmail, domain.ChannelTelegram}) {
		t.Fatalf("expected unreachable on email+telegram")
	}
	if ReachableAny(c, nil) {
		t.Fatalf("expected unreachable on empty channel set")
	}
}

func TestAddress(t *testing.T) {
	c := domain.Contact{TelegramHandle: "@ana"}
	if got := Address(c, domain.ChannelTelegram); got != "@ana" {
		t.Fatalf("expected @ana, got %q", got)
	}
	if got := Address(c, domain.ChannelSocial); got != "" {
		t.Fatalf("expected empty social address, got %q", got)
	}
}
