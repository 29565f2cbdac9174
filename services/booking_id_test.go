package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"
)

type fixedCounter struct {
	count int64
	since time.Time
	err   error
}

func (f *fixedCounter) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	f.since = since
	return f.count, f.err
}

func TestGenerateBookingIDFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.Local)
	counter := &fixedCounter{count: 4}

	id, err := GenerateBookingID(context.Background(), counter, "SDR", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SDR" + strconv.FormatInt(now.UnixMilli(), 10) + "05"
	if id != want {
		t.Fatalf("got %q, want %q", id, want)
	}
	if !counter.since.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("count window starts at %v, want local midnight", counter.since)
	}
}

func TestGenerateBookingIDUniqueWithinDay(t *testing.T) {
	pattern := regexp.MustCompile(`^SDR\d+\d{2}$`)
	counter := &fixedCounter{}
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	seen := map[string]bool{}

	for i := 0; i < 150; i++ {
		counter.count = int64(i)
		id, err := GenerateBookingID(context.Background(), counter, "SDR", start.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("id %q does not match format", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenerateBookingIDPropagatesCountFailure(t *testing.T) {
	counter := &fixedCounter{err: errors.New("db down")}
	if _, err := GenerateBookingID(context.Background(), counter, "SDR", time.Now()); err == nil {
		t.Fatalf("expected error when count fails")
	}
}
