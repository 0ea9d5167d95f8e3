package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"VCPSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Events(t *testing.T) {
	r := openTestRecorder(t)
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 5)
	events := []model.Event{
		{ID: "a", Date: d1, Symbol: "AAPL", Kind: model.EventBuy, Price: 180, Description: "VCP"},
		{ID: "b", Date: d2, Symbol: "AAPL", Kind: model.EventSell, Price: 175, Description: "close below EMA5"},
		// same bar and kind as "a" under a new id
		{ID: "c", Date: d1, Symbol: "AAPL", Kind: model.EventBuy, Price: 180},
	}
	for i := range events {
		if err := r.RecordEvent(&events[i]); err != nil {
			t.Fatalf("RecordEvent %s: %v", events[i].ID, err)
		}
	}

	got, err := r.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicate bar event to be ignored, got %d events", len(got))
	}
	if got[0].ID != "b" || got[0].Kind != model.EventSell || !got[0].Date.Equal(d2) {
		t.Errorf("expected newest sell first, got %+v", got[0])
	}
	if got[1].Price != 180 || got[1].Description != "VCP" {
		t.Errorf("unexpected buy %+v", got[1])
	}

	got, err = r.RecentEvents(1)
	if err != nil || len(got) != 1 {
		t.Errorf("expected limit to apply, got %d err=%v", len(got), err)
	}
}

func TestSQLiteRecorder_Snapshots(t *testing.T) {
	r := openTestRecorder(t)
	snaps := []ScanSnapshot{
		{RunID: "run", Symbol: "AAPL", Date: time.Now(), Close: 180, Ready: true, Progress: 0.5, RSRating: model.Float(88), State: model.StateArmed},
		{RunID: "run", Symbol: "BAD", Error: "fetch failed"},
	}
	for i := range snaps {
		if err := r.RecordSnapshot(&snaps[i]); err != nil {
			t.Fatalf("RecordSnapshot: %v", err)
		}
	}
	var n int
	var rating float64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM scan_snapshots WHERE run_id = 'run'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 snapshots, got %d", n)
	}
	if err := r.db.QueryRow(`SELECT rs_rating FROM scan_snapshots WHERE symbol = 'AAPL'`).Scan(&rating); err != nil {
		t.Fatal(err)
	}
	if rating != 88 {
		t.Errorf("expected rating 88, got %.2f", rating)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordEvent(&model.Event{}); err != nil {
		t.Error(err)
	}
	if events, err := r.RecentEvents(5); err != nil || events != nil {
		t.Errorf("expected nothing, got %v %v", events, err)
	}
}
