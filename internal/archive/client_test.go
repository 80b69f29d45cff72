package archive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient_EmptyURLDisables(t *testing.T) {
	c := NewClient("", "key")
	if c != nil {
		t.Fatal("expected nil client for empty URL")
	}
	ctx := context.Background()
	if err := c.PutStudy(ctx, StudyRecord{ID: "x"}); err != nil {
		t.Errorf("nil client PutStudy: %v", err)
	}
	rec, err := c.GetStudy(ctx, "x")
	if rec != nil || err != nil {
		t.Errorf("nil client GetStudy: %v, %v", rec, err)
	}
	if err := c.DeleteStudy(ctx, "x"); err != nil {
		t.Errorf("nil client DeleteStudy: %v", err)
	}
}

func TestPutStudy(t *testing.T) {
	var gotAuth, gotPath string
	var gotRec StudyRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotRec); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	rec := StudyRecord{ID: "study-1", Title: "ashtray", CreatedAt: time.Now().UTC()}
	if err := c.PutStudy(context.Background(), rec); err != nil {
		t.Fatalf("put study: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: %q", gotAuth)
	}
	if gotPath != "/studies/study-1" {
		t.Errorf("path: %q", gotPath)
	}
	if gotRec.Title != "ashtray" {
		t.Errorf("record title: %q", gotRec.Title)
	}
}

func TestGetStudy_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	rec, err := c.GetStudy(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get study: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestStatusClassification(t *testing.T) {
	for _, tc := range []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClient(srv.URL, "k")
		err := c.PutStudy(context.Background(), StudyRecord{ID: "s"})
		srv.Close()
		if err == nil {
			t.Errorf("status %d: expected error", tc.status)
			continue
		}
		var re *RetryableError
		if got := errors.As(err, &re); got != tc.retryable {
			t.Errorf("status %d: retryable = %v, want %v (%v)", tc.status, got, tc.retryable, err)
		}
	}
}

func TestListStudies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "2" {
			t.Errorf("limit not passed: %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"studies": []StudySummary{
				{ID: "a", Title: "first", MoveCount: 10},
				{ID: "b", Title: "second", MoveCount: 27},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	studies, err := c.ListStudies(context.Background(), 2)
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(studies) != 2 || studies[1].MoveCount != 27 {
		t.Errorf("unexpected listing: %+v", studies)
	}
}
