package channel

import "outreach/internal/domain"

// Reachable reports whether the contact can receive messages on the given
// channel. Social broadcast needs no per-recipient address and is always
// reachable; every other channel requires its address field to be non-empty.
// Unrecognized channels are never reachable.
func Reachable(c domain.Contact, ch domain.Channel) bool {
	switch ch {
	case domain.ChannelEmail:
		return c.Email != ""
	case domain.ChannelSMS:
		return c.Phone != ""
	case domain.ChannelWhatsApp:
		return c.WhatsAppHandle != ""
	case domain.ChannelTelegram:
		return c.TelegramHandle != ""
	case domain.ChannelSignal:
		return c.SignalAddress != ""
	case domain.ChannelSocial:
		return true
	}
	return false
}

// ReachableAny reports whether the contact is reachable on at least one of
// the given channels.
func ReachableAny(c domain.Contact, channels []domain.Channel) bool {
	for _, ch := range channels {
		if Reachable(c, ch) {
			return true
		}
	}
	return false
}

// Address returns the delivery address for the contact on the given channel.
// Social has no per-recipient address and returns "".
func Address(c domain.Contact, ch domain.Channel) string {
	switch ch {
	case domain.ChannelEmail:
		return c.Email
	case domain.ChannelSMS:
		return c.Phone
	case domain.ChannelWhatsApp:
		return c.WhatsAppHandle
	case domain.ChannelTelegram:
		return c.TelegramHandle
	case domain.ChannelSignal:
		return c.SignalAddress
	}
	return ""
}
