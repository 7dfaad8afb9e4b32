package controllers

import (
	"context"
	"errors"
	"testing"
	"time"

	"anifunnel/internal/models"
)

func liveCredential() *models.Credential {
	return &models.Credential{Token: "token", UserID: 1, Expiry: time.Now().Add(time.Hour)}
}

func TestWatchlistEntriesCachesWithinTTL(t *testing.T) {
	tracker := &fakeTracker{list: []*models.TrackedEntry{
		{MediaID: 101, EntryID: 201, Titles: []string{"Sousou no Frieren"}, Progress: 4},
	}}
	c := NewWatchlistController(tracker, 10*time.Minute, testLogger())
	cred := liveCredential()

	if _, err := c.Entries(context.Background(), cred); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if _, err := c.Entries(context.Background(), cred); err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if tracker.listCalls != 1 {
		t.Fatalf("fresh snapshot must be served from cache, fetches=%d", tracker.listCalls)
	}
}

func TestWatchlistRefreshFailureKeepsSnapshot(t *testing.T) {
	tracker := &fakeTracker{list: []*models.TrackedEntry{
		{MediaID: 101, EntryID: 201, Titles: []string{"Sousou no Frieren"}, Progress: 4},
	}}
	c := NewWatchlistController(tracker, 10*time.Minute, testLogger())
	cred := liveCredential()

	if _, err := c.Refresh(context.Background(), cred); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	tracker.mu.Lock()
	tracker.listErr = errors.New("remote down")
	tracker.mu.Unlock()

	if _, err := c.Refresh(context.Background(), cred); err == nil {
		t.Fatal("expected refresh error")
	}
	if progress, ok := c.Progress(101); !ok || progress != 4 {
		t.Fatalf("failed refresh must keep the previous snapshot, progress=%d ok=%v", progress, ok)
	}
}

func TestWatchlistRefreshRequiresCredential(t *testing.T) {
	c := NewWatchlistController(&fakeTracker{}, 10*time.Minute, testLogger())

	if _, err := c.Refresh(context.Background(), nil); err == nil {
		t.Fatal("refresh without a credential must fail")
	}
	expired := &models.Credential{Token: "token", Expiry: time.Now().Add(-time.Hour)}
	if _, err := c.Refresh(context.Background(), expired); err == nil {
		t.Fatal("refresh with an expired credential must fail")
	}
}

func TestCommitProgressSequentialOnly(t *testing.T) {
	tracker := &fakeTracker{list: []*models.TrackedEntry{
		{MediaID: 101, EntryID: 201, Titles: []string{"Sousou no Frieren"}, Progress: 4},
	}}
	c := NewWatchlistController(tracker, 10*time.Minute, testLogger())
	if _, err := c.Refresh(context.Background(), liveCredential()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if c.CommitProgress(101, 4) {
		t.Error("committing the current progress must be rejected")
	}
	if c.CommitProgress(101, 6) {
		t.Error("committing a jump must be rejected")
	}
	if c.CommitProgress(101, 3) {
		t.Error("committing a regression must be rejected")
	}
	if !c.CommitProgress(101, 5) {
		t.Error("the single sequential increment must be accepted")
	}
	if progress, _ := c.Progress(101); progress != 5 {
		t.Errorf("unexpected progress: %d", progress)
	}
	if c.CommitProgress(999, 1) {
		t.Error("committing an unknown media ID must be rejected")
	}
}

func TestWatchlistClearForcesRefetch(t *testing.T) {
	tracker := &fakeTracker{list: []*models.TrackedEntry{
		{MediaID: 101, EntryID: 201, Titles: []string{"Sousou no Frieren"}, Progress: 4},
	}}
	c := NewWatchlistController(tracker, 10*time.Minute, testLogger())
	cred := liveCredential()

	if _, err := c.Entries(context.Background(), cred); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	c.Clear()
	if _, ok := c.Progress(101); ok {
		t.Fatal("cleared cache must not serve entries")
	}
	if _, err := c.Entries(context.Background(), cred); err != nil {
		t.Fatalf("read after clear failed: %v", err)
	}
	if tracker.listCalls != 2 {
		t.Fatalf("clear must force a refetch, fetches=%d", tracker.listCalls)
	}
}
