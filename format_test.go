package main

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{1_099_511_627_776, "1 TB"},
		{2048 * 1_099_511_627_776, "2048 TB"},
		{-5, "0 B"},
		{1048575, "1 MB"},
		{1073741823, "1 GB"},
		{1024*1024 - 6, "1023.99 KB"},
		{2047, "2 KB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.in); got != tc.want {
			t.Fatalf("formatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if got := formatTime(ts, time.UTC); got != "2024-01-02 03:04:05" {
		t.Fatalf("UTC: got %q", got)
	}
	if got := formatTime(ts, time.FixedZone("UTC+8", 8*3600)); got != "2024-01-02 11:04:05" {
		t.Fatalf("UTC+8: got %q", got)
	}
	if got := formatTime(time.Time{}, time.UTC); got != "" {
		t.Fatalf("zero time should format empty, got %q", got)
	}
	if got := formatTime(ts, nil); got != ts.In(time.Local).Format(listingTimeLayout) {
		t.Fatalf("nil location should mean local time, got %q", got)
	}
}
