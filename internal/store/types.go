package store

import (
	"time"

	"outreach/internal/domain"
)

type Segment struct {
	ID   string
	Name string
}

type Broadcast struct {
	ID              string
	ContentID       string
	SegmentID       string
	Channels        []domain.Channel
	ScheduledAt     *time.Time
	Status          domain.BroadcastStatus
	TotalRecipients int
	Delivered       int
	Failed          int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BroadcastInsert struct {
	ID              string
	ContentID       string
	SegmentID       string
	Channels        []domain.Channel
	ScheduledAt     *time.Time
	TotalRecipients int
	Now             time.Time
}

type BroadcastFinalize struct {
	ID        string
	Status    domain.BroadcastStatus
	Delivered int
	Failed    int
	Now       time.Time
}

type DeliveryInsert struct {
	ID          string
	BroadcastID string
	ContactID   string
	Channel     domain.Channel
	Now         time.Time
}

type DeliveryOutcome struct {
	ID        string
	Status    domain.DeliveryStatus
	LastError string
	Now       time.Time
}

type Sequence struct {
	ID     string
	Name   string
	Active bool
}

type SequenceStep struct {
	SequenceID string
	StepNumber int
	DelayDays  int
	Subject    string
	Body       string
	Language   string
	Channels   []domain.Channel
}

type Enrollment struct {
	ID             string
	SequenceID     string
	ContactID      string
	CurrentStep    int
	Status         domain.EnrollmentStatus
	NextSendAt     *time.Time
	FailedAttempts int
}

type EnrollmentInsert struct {
	ID         string
	SequenceID string
	ContactID  string
	NextSendAt time.Time
	Now        time.Time
}

type EnrollmentAdvance struct {
	ID          string
	CurrentStep int
	Status      domain.EnrollmentStatus
	NextSendAt  *time.Time
	Now         time.Time
}

type EnrollmentFailure struct {
	ID             string
	FailedAttempts int
	Status         domain.EnrollmentStatus
	Now            time.Time
}

type Derivative struct {
	ID        string
	ContentID string
	Type      string
	Language  string
	Body      string
	Generated bool
}

type Translation struct {
	ID            string
	DerivativeID  string
	Language      string
	Body          string
	Status        domain.TranslationStatus
	ReviewPass    int
	Generated     bool
	ReviewerNotes string
}

type TranslationUpsert struct {
	ID           string
	DerivativeID string
	Language     string
	Body         string
	Status       domain.TranslationStatus
	ReviewPass   int
	Generated    bool
	Now          time.Time
}

type TranslationReviewUpdate struct {
	ID            string
	Body          string
	Status        domain.TranslationStatus
	ReviewPass    int
	ReviewerNotes string
	Now           time.Time
}

type VariantUpsert struct {
	ID        string
	ContentID string
	Channel   domain.Channel
	Language  string
	Subject   string
	Body      string
	Generated bool
	Now       time.Time
}

type DailyMetrics struct {
	Day              time.Time
	Sent             int
	Failed           int
	FailureRate      float64
	Generated        int
	GenerationFailed int
}

type AlertInsert struct {
	ID       string
	Severity domain.AlertSeverity
	Category string
	Message  string
	Details  map[string]any
	Now      time.Time
}
