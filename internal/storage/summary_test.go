package storage

import "testing"

// TestTruncInterval verifies the bucket spec to date_trunc field mapping,
// including the safe default for anything unrecognized (never passes client
// input into SQL unmapped).
func TestTruncInterval(t *testing.T) {
	tests := []struct {
		bucket string
		want   string
	}{
		{"1 week", "week"},
		{"1 month", "month"},
		{"", "week"},
		{"1 day", "week"},
		{"'; DROP TABLE sessions; --", "week"},
	}

	for _, tt := range tests {
		if got := truncInterval(tt.bucket); got != tt.want {
			t.Errorf("truncInterval(%q) = %q, want %q", tt.bucket, got, tt.want)
		}
	}
}
