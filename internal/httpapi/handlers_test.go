package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"outreach/internal/domain"
	"outreach/internal/store"
)

type fakeReader struct {
	broadcasts map[string]store.Broadcast
	err        error
}

func (f *fakeReader) GetBroadcast(_ context.Context, id string) (store.Broadcast, bool, error) {
	if f.err != nil {
		return store.Broadcast{}, false, f.err
	}
	bc, ok := f.broadcasts[id]
	return bc, ok, nil
}

func newTestAPI(reader BroadcastReader) *Server {
	s := New()
	api := &API{Reader: reader}
	api.Register(s.Mux)
	return s
}

func TestGetBroadcast(t *testing.T) {
	s := newTestAPI(&fakeReader{broadcasts: map[string]store.Broadcast{
		"bc_1": {ID: "bc_1", ContentID: "ct_1", Status: domain.BroadcastSent, TotalRecipients: 5},
	}})

	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/broadcasts/bc_1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	rec = httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/broadcasts/bc_missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetBroadcastStoreError(t *testing.T) {
	s := newTestAPI(&fakeReader{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/broadcasts/bc_1", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("content ct_1: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrAlreadyEnrolled, http.StatusConflict},
		{domain.ErrSequenceNotActive, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrMissingFields, http.StatusBadRequest},
		{errors.New("db down"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err, "test")
		if rec.Code != tc.want {
			t.Fatalf("err %v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}
