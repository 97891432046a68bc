package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"outreach/internal/broadcast"
	"outreach/internal/domain"
	"outreach/internal/localization"
	"outreach/internal/observability"
	sqsqueue "outreach/internal/queue/sqs"
	"outreach/internal/sequence"
	"outreach/internal/store"
)

const (
	ErrInvalidJSON = "invalid json"
	ErrMissingID   = "missing id"
	ErrDependency  = "dependency error"
	ErrNotFound    = "not found"
)

// BroadcastReader serves the read side of the broadcast resource.
type BroadcastReader interface {
	GetBroadcast(ctx context.Context, id string) (store.Broadcast, bool, error)
}

type API struct {
	Broadcasts   *broadcast.Engine
	Sequences    *sequence.Engine
	Localization *localization.Pipeline
	Queue        *sqsqueue.Producer
	Reader       BroadcastReader
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/v1/broadcasts", a.handleCreateBroadcast).Methods(http.MethodPost)
	r.HandleFunc("/v1/broadcasts/urgent", a.handleUrgentBroadcast).Methods(http.MethodPost)
	r.HandleFunc("/v1/broadcasts/{id}", a.handleGetBroadcast).Methods(http.MethodGet)
	r.HandleFunc("/v1/broadcasts/{id}/execute", a.handleExecuteBroadcast).Methods(http.MethodPost)
	r.HandleFunc("/v1/sequences/{id}/enrollments", a.handleEnroll).Methods(http.MethodPost)
	r.HandleFunc("/v1/translations", a.handleGenerateTranslation).Methods(http.MethodPost)
	r.HandleFunc("/v1/translations/{id}/review", a.handleSubmitReview).Methods(http.MethodPost)
	r.HandleFunc("/v1/content/{id}/adaptations", a.handleAdaptContent).Methods(http.MethodPost)
}

func (a *API) handleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, total, err := a.Broadcasts.CreateFanOut(r.Context(), req.ContentID, req.SegmentID, req.Channels, req.ScheduledAt)
	if err != nil {
		writeDomainError(w, err, "create broadcast failed", "content_id", req.ContentID, "segment_id", req.SegmentID)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              id,
		"totalRecipients": total,
	})
}

func (a *API) handleExecuteBroadcast(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	bc, found, err := a.Reader.GetBroadcast(r.Context(), id)
	if err != nil {
		slog.Error("get broadcast failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}

	err = a.Queue.EnqueueExecute(r.Context(), sqsqueue.ExecuteJob{
		BroadcastID: bc.ID,
		ContentID:   bc.ContentID,
	})
	if err != nil {
		observability.Enqueues.WithLabelValues("error").Inc()
		slog.Error("enqueue execute failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	observability.Enqueues.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusAccepted, map[string]any{"id": bc.ID, "status": "queued"})
}

func (a *API) handleUrgentBroadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.UrgentBroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Urgent sends run inline: the caller waits for the aggregate outcome.
	res, err := a.Broadcasts.ProcessUrgent(r.Context(), req.ContentID, req.SegmentIDs, req.Channels)
	if err != nil {
		writeDomainError(w, err, "urgent broadcast failed", "content_id", req.ContentID)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleGetBroadcast(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	bc, found, err := a.Reader.GetBroadcast(r.Context(), id)
	if err != nil {
		slog.Error("get broadcast failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, broadcastView(bc))
}

type enrollRequest struct {
	ContactID string `json:"contactId"`
}

func (a *API) handleEnroll(w http.ResponseWriter, r *http.Request) {
	sequenceID := mux.Vars(r)["id"]
	if sequenceID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.ContactID == "" {
		http.Error(w, domain.ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}

	id, err := a.Sequences.Enroll(r.Context(), sequenceID, req.ContactID)
	if err != nil {
		writeDomainError(w, err, "enroll failed", "sequence_id", sequenceID, "contact_id", req.ContactID)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (a *API) handleGenerateTranslation(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := a.Localization.Generate(r.Context(), req.DerivativeID, req.TargetLanguage)
	if err != nil {
		writeDomainError(w, err, "generate translation failed", "derivative_id", req.DerivativeID, "language", req.TargetLanguage)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (a *API) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	var req domain.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.Localization.SubmitReview(r.Context(), id, req); err != nil {
		writeDomainError(w, err, "submit review failed", "translation_id", id, "action", string(req.Action))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type adaptRequest struct {
	Channels []domain.Channel `json:"channels"`
}

func (a *API) handleAdaptContent(w http.ResponseWriter, r *http.Request) {
	contentID := mux.Vars(r)["id"]
	if contentID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	var req adaptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if len(req.Channels) == 0 {
		http.Error(w, domain.ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}

	if err := a.Localization.AdaptForChannels(r.Context(), contentID, req.Channels); err != nil {
		writeDomainError(w, err, "adapt content failed", "content_id", contentID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps the domain sentinels onto HTTP statuses; anything
// else is a dependency failure.
func writeDomainError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrSequenceNotActive),
		errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrMissingFields):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error(msg, append([]any{"err", err}, attrs...)...)
		http.Error(w, ErrDependency, http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func broadcastView(bc store.Broadcast) map[string]any {
	return map[string]any{
		"id":              bc.ID,
		"contentId":       bc.ContentID,
		"segmentId":       bc.SegmentID,
		"channels":        bc.Channels,
		"scheduledAt":     bc.ScheduledAt,
		"status":          bc.Status,
		"totalRecipients": bc.TotalRecipients,
		"delivered":       bc.Delivered,
		"failed":          bc.Failed,
		"createdAt":       bc.CreatedAt,
		"updatedAt":       bc.UpdatedAt,
	}
}
