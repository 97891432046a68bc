package domain

import (
	"errors"
	"time"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelSignal   Channel = "signal"
	ChannelSocial   Channel = "social"
)

// DefaultLanguage is the fallback language for version selection.
const DefaultLanguage = "en"

type ContentStatus string

const (
	ContentDraft           ContentStatus = "draft"
	ContentPendingApproval ContentStatus = "pending_approval"
	ContentApproved        ContentStatus = "approved"
	ContentScheduled       ContentStatus = "scheduled"
	ContentSending         ContentStatus = "sending"
	ContentSent            ContentStatus = "sent"
	ContentPartial         ContentStatus = "partial"
	ContentFailed          ContentStatus = "failed"
)

type BroadcastStatus string

const (
	BroadcastScheduled BroadcastStatus = "scheduled"
	BroadcastSending   BroadcastStatus = "sending"
	BroadcastSent      BroadcastStatus = "sent"
	BroadcastPartial   BroadcastStatus = "partial"
	BroadcastFailed    BroadcastStatus = "failed"
)

type DeliveryStatus string

const (
	DeliveryQueued DeliveryStatus = "queued"
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPaused    EnrollmentStatus = "paused"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentExited    EnrollmentStatus = "exited"
)

type TranslationStatus string

const (
	TranslationAIDraft       TranslationStatus = "ai_draft"
	TranslationReviewPending TranslationStatus = "review_pending"
	TranslationReviewed      TranslationStatus = "reviewed"
	TranslationApproved      TranslationStatus = "approved"
	TranslationFailed        TranslationStatus = "failed"
)

type AlertSeverity string

const (
	SeverityWarning AlertSeverity = "warning"
	SeverityError   AlertSeverity = "error"
)

// Contact carries the per-channel address fields the capability resolver
// inspects. A contact with none of them set is only reachable on social.
type Contact struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	WhatsAppHandle string
	TelegramHandle string
	SignalAddress  string
	Language       string
	Active         bool
}

// Variant is a per-(channel, language) rendering of a content item.
type Variant struct {
	ID        string
	ContentID string
	Channel   Channel
	Language  string
	Subject   string
	Body      string
	Generated bool
}

type ContentItem struct {
	ID       string
	Title    string
	Body     string
	Language string
	Type     string
	Priority string
	Status   ContentStatus
}

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyEnrolled   = errors.New("contact already enrolled")
	ErrSequenceNotActive = errors.New("sequence not active")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrMissingFields     = errors.New("missing required fields")
)

type CreateBroadcastRequest struct {
	ContentID   string     `json:"contentId"`
	SegmentID   string     `json:"segmentId"`
	Channels    []Channel  `json:"channels"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

func (r CreateBroadcastRequest) Validate() error {
	if r.ContentID == "" || r.SegmentID == "" || len(r.Channels) == 0 {
		return ErrMissingFields
	}
	return nil
}

type UrgentBroadcastRequest struct {
	ContentID  string    `json:"contentId"`
	SegmentIDs []string  `json:"segmentIds"`
	Channels   []Channel `json:"channels"`
}

func (r UrgentBroadcastRequest) Validate() error {
	if r.ContentID == "" || len(r.SegmentIDs) == 0 || len(r.Channels) == 0 {
		return ErrMissingFields
	}
	return nil
}

type GenerateTranslationRequest struct {
	DerivativeID   string `json:"derivativeId"`
	TargetLanguage string `json:"targetLanguage"`
}

func (r GenerateTranslationRequest) Validate() error {
	if r.DerivativeID == "" || r.TargetLanguage == "" {
		return ErrMissingFields
	}
	return nil
}

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
	ReviewEdit    ReviewAction = "edit"
)

type SubmitReviewRequest struct {
	Action     ReviewAction `json:"action"`
	Notes      string       `json:"notes,omitempty"`
	EditedBody string       `json:"editedBody,omitempty"`
}

func (r SubmitReviewRequest) Validate() error {
	switch r.Action {
	case ReviewApprove, ReviewReject:
		return nil
	case ReviewEdit:
		if r.EditedBody == "" {
			return ErrMissingFields
		}
		return nil
	}
	return ErrMissingFields
}
