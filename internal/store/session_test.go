package store

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{
		ID:     uuid.NewString(),
		Source: "video:test.mov",
	}

	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if sess.StartedAt.IsZero() {
		t.Error("Create should set StartedAt")
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Source != "video:test.mov" {
		t.Errorf("Source = %q, want %q", got.Source, "video:test.mov")
	}
	if !got.EndedAt.IsZero() {
		t.Errorf("EndedAt = %v, want zero for a running session", got.EndedAt)
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.NewString(), Source: "camera:0"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	endedAt := time.Now().Add(time.Minute)
	if err := s.Sessions().End(sess.ID, endedAt); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt.IsZero() {
		t.Error("EndedAt should be set after End")
	}
}

func TestSessionRepository_EndMissing(t *testing.T) {
	s := newTestStore(t)

	if err := s.Sessions().End("missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		sess := &Session{
			ID:        uuid.NewString(),
			Source:    "camera:0",
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := s.Sessions().Create(sess); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	sessions, err := s.Sessions().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("List() returned %d sessions, want 3", len(sessions))
	}

	// Most recent first
	for i := 1; i < len(sessions); i++ {
		if sessions[i].StartedAt.After(sessions[i-1].StartedAt) {
			t.Error("List() should order sessions most recent first")
		}
	}
}

func TestSelectionRepository_CreateAndList(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.NewString(), Source: "camera:0"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create session error = %v", err)
	}

	sel := &Selection{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Box:       image.Rect(10, 20, 110, 220),
	}
	if err := s.Selections().Create(sel); err != nil {
		t.Fatalf("Create selection error = %v", err)
	}

	got, err := s.Selections().GetByID(sel.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Box != image.Rect(10, 20, 110, 220) {
		t.Errorf("Box = %v, want %v", got.Box, image.Rect(10, 20, 110, 220))
	}

	list, err := s.Selections().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListBySession() returned %d selections, want 1", len(list))
	}
}

func TestSelectionRepository_RequiresSession(t *testing.T) {
	s := newTestStore(t)

	sel := &Selection{
		ID:        uuid.NewString(),
		SessionID: "missing-session",
		Box:       image.Rect(0, 0, 10, 10),
	}

	if err := s.Selections().Create(sel); err == nil {
		t.Error("Create should fail for an unknown session (foreign key)")
	}
}

func TestTrackPointRepository_AddAndList(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.NewString(), Source: "camera:0"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create session error = %v", err)
	}

	sel := &Selection{ID: uuid.NewString(), SessionID: sess.ID, Box: image.Rect(0, 0, 50, 50)}
	if err := s.Selections().Create(sel); err != nil {
		t.Fatalf("Create selection error = %v", err)
	}

	for i := 0; i < 5; i++ {
		p := &TrackPoint{
			SelectionID: sel.ID,
			FrameIndex:  i,
			CX:          25 + float64(i)*5,
			CY:          25,
			Width:       50,
			Height:      50,
			Angle:       0,
		}
		if err := s.TrackPoints().Add(p); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if p.ID == 0 {
			t.Error("Add should populate the point ID")
		}
	}

	points, err := s.TrackPoints().ListBySelection(sel.ID)
	if err != nil {
		t.Fatalf("ListBySelection() error = %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("ListBySelection() returned %d points, want 5", len(points))
	}

	for i, p := range points {
		if p.FrameIndex != i {
			t.Errorf("points[%d].FrameIndex = %d, want %d", i, p.FrameIndex, i)
		}
	}

	count, err := s.TrackPoints().CountBySelection(sel.ID)
	if err != nil {
		t.Fatalf("CountBySelection() error = %v", err)
	}
	if count != 5 {
		t.Errorf("CountBySelection() = %d, want 5", count)
	}
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{ID: uuid.NewString(), Source: "camera:0"}
	s.Sessions().Create(sess)

	sel := &Selection{ID: uuid.NewString(), SessionID: sess.ID, Box: image.Rect(0, 0, 10, 10)}
	s.Selections().Create(sel)

	s.TrackPoints().Add(&TrackPoint{SelectionID: sel.ID, FrameIndex: 0, CX: 5, CY: 5, Width: 10, Height: 10})

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Selections().GetByID(sel.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("selection should be cascade-deleted, got err = %v", err)
	}

	count, err := s.TrackPoints().CountBySelection(sel.ID)
	if err != nil {
		t.Fatalf("CountBySelection() error = %v", err)
	}
	if count != 0 {
		t.Errorf("track points should be cascade-deleted, found %d", count)
	}
}
