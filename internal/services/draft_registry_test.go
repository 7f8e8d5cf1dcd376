package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulexconde/surveyengine/internal/models"
	"github.com/paulexconde/surveyengine/internal/pkg/scratch"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

func TestDraftRegistry(t *testing.T) {
	gateway := newFakeGateway()
	gateway.surveys["s1"] = &models.Survey{
		ID:            "s1",
		UserID:        "owner",
		Title:         "Existing",
		SurveyOptions: models.DefaultSurveyOptions(),
		Questions:     []models.Question{{ID: "q1", Type: models.Input, Title: "Why?"}},
	}
	r := NewDraftRegistry(DraftConfig{Scratch: scratch.NewMemoryStore(), Gateway: gateway})

	sessionID, d, err := r.Open("owner", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if sessionID == "" || d.State().Title != DefaultSurveyTitle {
		t.Fatalf("unexpected new draft %q %+v", sessionID, d.State())
	}

	if _, again, _ := r.Open("owner", sessionID); again != d {
		t.Error("expected reopening a session to return the same draft")
	}
	if _, _, err := r.Open("intruder", sessionID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another owner, got %v", err)
	}
	if _, err := r.Get("intruder", sessionID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another owner, got %v", err)
	}

	editID, edit, err := r.OpenEdit(context.Background(), "owner", "s1")
	if err != nil {
		t.Fatalf("OpenEdit failed: %v", err)
	}
	if !edit.State().EditMode || edit.State().Title != "Existing" {
		t.Errorf("unexpected edit draft %+v", edit.State())
	}
	if got, err := r.Get("owner", editID); err != nil || got != edit {
		t.Errorf("expected edit draft to be registered, got %v", err)
	}

	if _, _, err := r.OpenEdit(context.Background(), "intruder", "s1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound when editing someone else's survey, got %v", err)
	}

	r.Close(sessionID)
	if _, err := r.Get("owner", sessionID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected closed session to be gone, got %v", err)
	}
}

func TestDraftRegistry_EvictsIdleDrafts(t *testing.T) {
	r := NewDraftRegistry(DraftConfig{Scratch: scratch.NewMemoryStore(), Gateway: newFakeGateway(), IdleTTL: time.Hour})
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	idle, _, err := r.Open("owner", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	busy, _, err := r.Open("owner", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	clock = clock.Add(40 * time.Minute)
	if _, err := r.Get("owner", busy); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	clock = clock.Add(40 * time.Minute)
	if _, err := r.Get("owner", idle); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected the idle draft to be evicted, got %v", err)
	}
	if _, err := r.Get("owner", busy); err != nil {
		t.Errorf("expected the recently used draft to survive, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected one draft left, got %d", r.Len())
	}
}

func TestDraftRegistry_NoIdleTTLKeepsDrafts(t *testing.T) {
	r := NewDraftRegistry(DraftConfig{Scratch: scratch.NewMemoryStore(), Gateway: newFakeGateway()})
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	id, _, err := r.Open("owner", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	clock = clock.Add(30 * 24 * time.Hour)
	if _, err := r.Get("owner", id); err != nil {
		t.Errorf("expected the draft to be kept, got %v", err)
	}
}
