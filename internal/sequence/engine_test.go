package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach/internal/domain"
	"outreach/internal/store"
	"outreach/internal/transform"
	"outreach/internal/transport"
)

type fakeStore struct {
	sequences   map[string]store.Sequence
	steps       map[string][]store.SequenceStep // by sequence ID, ordered
	enrollments map[string]*store.Enrollment    // by enrollment ID
	contacts    map[string]domain.Contact
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sequences:   map[string]store.Sequence{},
		steps:       map[string][]store.SequenceStep{},
		enrollments: map[string]*store.Enrollment{},
		contacts:    map[string]domain.Contact{},
	}
}

func (f *fakeStore) GetSequence(_ context.Context, id string) (store.Sequence, bool, error) {
	s, ok := f.sequences[id]
	return s, ok, nil
}

func (f *fakeStore) GetStep(_ context.Context, sequenceID string, stepNumber int) (store.SequenceStep, bool, error) {
	for _, st := range f.steps[sequenceID] {
		if st.StepNumber == stepNumber {
			return st, true, nil
		}
	}
	return store.SequenceStep{}, false, nil
}

func (f *fakeStore) FindEnrollment(_ context.Context, sequenceID, contactID string) (store.Enrollment, bool, error) {
	for _, e := range f.enrollments {
		if e.SequenceID == sequenceID && e.ContactID == contactID {
			return *e, true, nil
		}
	}
	return store.Enrollment{}, false, nil
}

func (f *fakeStore) InsertEnrollment(_ context.Context, in store.EnrollmentInsert) error {
	at := in.NextSendAt
	f.enrollments[in.ID] = &store.Enrollment{
		ID:         in.ID,
		SequenceID: in.SequenceID,
		ContactID:  in.ContactID,
		Status:     domain.EnrollmentActive,
		NextSendAt: &at,
	}
	return nil
}

func (f *fakeStore) ListDueEnrollments(_ context.Context, now time.Time) ([]store.Enrollment, error) {
	var out []store.Enrollment
	for _, e := range f.enrollments {
		if e.Status == domain.EnrollmentActive && e.NextSendAt != nil && !e.NextSendAt.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) AdvanceEnrollment(_ context.Context, in store.EnrollmentAdvance) error {
	e, ok := f.enrollments[in.ID]
	if !ok {
		return errors.New("unknown enrollment " + in.ID)
	}
	e.CurrentStep = in.CurrentStep
	e.Status = in.Status
	e.NextSendAt = in.NextSendAt
	e.FailedAttempts = 0
	return nil
}

func (f *fakeStore) RecordStepFailure(_ context.Context, in store.EnrollmentFailure) error {
	e, ok := f.enrollments[in.ID]
	if !ok {
		return errors.New("unknown enrollment " + in.ID)
	}
	e.FailedAttempts = in.FailedAttempts
	e.Status = in.Status
	return nil
}

func (f *fakeStore) GetContact(_ context.Context, id string) (domain.Contact, bool, error) {
	c, ok := f.contacts[id]
	return c, ok, nil
}

type fakeDeliverer struct {
	fail  bool
	calls []transport.DeliveryRequest
}

func (d *fakeDeliverer) Deliver(_ context.Context, req transport.DeliveryRequest) transport.DeliveryResult {
	d.calls = append(d.calls, req)
	if d.fail {
		return transport.DeliveryResult{Success: false, Error: "relay down"}
	}
	return transport.DeliveryResult{Success: true}
}

// passthrough transformer: records prompts, returns text untouched.
type fakeTransformer struct {
	prompts []string
}

func (tr *fakeTransformer) Transform(_ context.Context, systemPrompt, text, _ string) transform.Result {
	tr.prompts = append(tr.prompts, systemPrompt)
	return transform.Result{Text: text, Generated: true}
}

type fakeSink struct {
	alerts []string
}

func (s *fakeSink) RecordDeliveries(_ context.Context, _ time.Time, _, _ int)   {}
func (s *fakeSink) RecordTranslations(_ context.Context, _ time.Time, _, _ int) {}
func (s *fakeSink) RaiseAlert(_ context.Context, sev domain.AlertSeverity, category, _ string, _ map[string]any) {
	s.alerts = append(s.alerts, string(sev)+":"+category)
}

func seedEngine() (*Engine, *fakeStore, *fakeDeliverer, *fakeSink) {
	fs := newFakeStore()
	fs.sequences["sq_1"] = store.Sequence{ID: "sq_1", Name: "welcome", Active: true}
	fs.steps["sq_1"] = []store.SequenceStep{
		{SequenceID: "sq_1", StepNumber: 1, DelayDays: 0, Body: "step one", Language: "en", Channels: []domain.Channel{domain.ChannelEmail}},
		{SequenceID: "sq_1", StepNumber: 2, DelayDays: 3, Body: "step two", Language: "en", Channels: []domain.Channel{domain.ChannelEmail}},
	}
	fs.contacts["c1"] = domain.Contact{ID: "c1", Name: "Ana", Email: "ana@example.org", Language: "en", Active: true}
	fd := &fakeDeliverer{}
	sink := &fakeSink{}
	return &Engine{
		Store:           fs,
		Deliverer:       fd,
		Transformer:     &fakeTransformer{},
		Sink:            sink,
		MaxStepAttempts: 3,
	}, fs, fd, sink
}

func TestEnrollAndFirstStepDue(t *testing.T) {
	e, fs, _, _ := seedEngine()
	ctx := context.Background()

	id, err := e.Enroll(ctx, "sq_1", "c1")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	enr := fs.enrollments[id]
	if enr.NextSendAt == nil {
		t.Fatalf("expected nextSendAt set")
	}
	// Step 1 has delay 0: due immediately.
	if enr.NextSendAt.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("expected nextSendAt ~now, got %v", enr.NextSendAt)
	}
}

func TestEnrollDuplicateRejected(t *testing.T) {
	e, fs, _, _ := seedEngine()
	ctx := context.Background()

	if _, err := e.Enroll(ctx, "sq_1", "c1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := e.Enroll(ctx, "sq_1", "c1"); !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if len(fs.enrollments) != 1 {
		t.Fatalf("expected one enrollment row, got %d", len(fs.enrollments))
	}
}

func TestEnrollPausedSequenceRejected(t *testing.T) {
	e, fs, _, _ := seedEngine()
	fs.sequences["sq_1"] = store.Sequence{ID: "sq_1", Active: false}

	if _, err := e.Enroll(context.Background(), "sq_1", "c1"); !errors.Is(err, domain.ErrSequenceNotActive) {
		t.Fatalf("expected ErrSequenceNotActive, got %v", err)
	}
	if _, err := e.Enroll(context.Background(), "sq_missing", "c1"); !errors.Is(err, domain.ErrSequenceNotActive) {
		t.Fatalf("expected ErrSequenceNotActive for missing sequence, got %v", err)
	}
}

func TestProcessDueAdvancesOneStep(t *testing.T) {
	e, fs, _, _ := seedEngine()
	ctx := context.Background()
	now := time.Now().UTC()

	id, _ := e.Enroll(ctx, "sq_1", "c1")
	stats, err := e.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Processed != 1 || stats.Sent != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	enr := fs.enrollments[id]
	if enr.CurrentStep != 1 {
		t.Fatalf("expected currentStep=1, got %d", enr.CurrentStep)
	}
	want := now.AddDate(0, 0, 3)
	if enr.NextSendAt == nil || !enr.NextSendAt.Equal(want) {
		t.Fatalf("expected nextSendAt=now+3d (%v), got %v", want, enr.NextSendAt)
	}
	if enr.Status != domain.EnrollmentActive {
		t.Fatalf("expected still active, got %s", enr.Status)
	}
}

func TestProcessDueCompletesOnFinalStep(t *testing.T) {
	e, fs, _, _ := seedEngine()
	ctx := context.Background()
	now := time.Now().UTC()

	id, _ := e.Enroll(ctx, "sq_1", "c1")
	if _, err := e.ProcessDue(ctx, now); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// Fast-forward past the 3-day delay to deliver the final step.
	later := now.AddDate(0, 0, 3)
	stats, err := e.ProcessDue(ctx, later)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected completion in same pass, got %+v", stats)
	}
	enr := fs.enrollments[id]
	if enr.Status != domain.EnrollmentCompleted || enr.NextSendAt != nil {
		t.Fatalf("expected completed with nil nextSendAt, got %+v", enr)
	}
	if enr.CurrentStep != 2 {
		t.Fatalf("expected currentStep=2, got %d", enr.CurrentStep)
	}
}

func TestProcessDueExhaustedEnrollmentCompletes(t *testing.T) {
	e, fs, fd, _ := seedEngine()
	ctx := context.Background()
	now := time.Now().UTC()
	fs.enrollments["enr_x"] = &store.Enrollment{
		ID: "enr_x", SequenceID: "sq_1", ContactID: "c1",
		CurrentStep: 2, Status: domain.EnrollmentActive, NextSendAt: &now,
	}

	stats, err := e.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Completed != 1 || len(fd.calls) != 0 {
		t.Fatalf("expected silent completion without delivery, stats=%+v calls=%d", stats, len(fd.calls))
	}
	if fs.enrollments["enr_x"].Status != domain.EnrollmentCompleted {
		t.Fatalf("expected completed, got %s", fs.enrollments["enr_x"].Status)
	}
}

func TestProcessDueFullFailureDoesNotAdvance(t *testing.T) {
	e, fs, fd, sink := seedEngine()
	ctx := context.Background()
	now := time.Now().UTC()
	fd.fail = true

	id, _ := e.Enroll(ctx, "sq_1", "c1")
	stats, err := e.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Failed != 1 || stats.Sent != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	enr := fs.enrollments[id]
	if enr.CurrentStep != 0 {
		t.Fatalf("failed step must not advance, currentStep=%d", enr.CurrentStep)
	}
	if enr.FailedAttempts != 1 {
		t.Fatalf("expected failedAttempts=1, got %d", enr.FailedAttempts)
	}
	if len(sink.alerts) != 1 || sink.alerts[0] != "warning:sequence_step_failure" {
		t.Fatalf("expected warning alert, got %v", sink.alerts)
	}
}

func TestProcessDuePausesAfterAttemptBudget(t *testing.T) {
	e, fs, fd, sink := seedEngine()
	ctx := context.Background()
	now := time.Now().UTC()
	fd.fail = true

	id, _ := e.Enroll(ctx, "sq_1", "c1")
	for i := 0; i < 3; i++ {
		if _, err := e.ProcessDue(ctx, now); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	enr := fs.enrollments[id]
	if enr.Status != domain.EnrollmentPaused {
		t.Fatalf("expected paused after 3 attempts, got %s", enr.Status)
	}
	if sink.alerts[len(sink.alerts)-1] != "error:sequence_step_failure" {
		t.Fatalf("expected final error alert, got %v", sink.alerts)
	}

	// A paused enrollment is no longer due.
	stats, _ := e.ProcessDue(ctx, now)
	if stats.Processed != 0 {
		t.Fatalf("paused enrollment must not be processed, got %+v", stats)
	}
}

func TestProcessDueTranslatesForContactLanguage(t *testing.T) {
	e, fs, _, _ := seedEngine()
	ctx := context.Background()
	tr := &fakeTransformer{}
	e.Transformer = tr
	fs.contacts["c1"] = domain.Contact{ID: "c1", Email: "ana@example.org", Language: "es", Active: true}

	if _, err := e.Enroll(ctx, "sq_1", "c1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := e.ProcessDue(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("process: %v", err)
	}

	// Translation first, channel adaptation second.
	if len(tr.prompts) != 2 {
		t.Fatalf("expected translate+adapt, got %d transforms", len(tr.prompts))
	}
	if tr.prompts[0] != transform.TranslatePrompt("es") {
		t.Fatalf("expected translate prompt first, got %q", tr.prompts[0])
	}
}

func TestProcessDueSkipsUnreachableChannel(t *testing.T) {
	e, fs, fd, _ := seedEngine()
	ctx := context.Background()
	fs.steps["sq_1"][0].Channels = []domain.Channel{domain.ChannelSMS, domain.ChannelEmail}

	id, _ := e.Enroll(ctx, "sq_1", "c1")
	if _, err := e.ProcessDue(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("process: %v", err)
	}
	// Contact has email only: one delivery, step still advances.
	if len(fd.calls) != 1 || fd.calls[0].Channel != domain.ChannelEmail {
		t.Fatalf("expected single email delivery, got %+v", fd.calls)
	}
	if fs.enrollments[id].CurrentStep != 1 {
		t.Fatalf("expected advancement on partial channel coverage")
	}
}
