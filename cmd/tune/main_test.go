package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEvalLog_TracksBestAndWritesRows(t *testing.T) {
	pv := NewParamVector()
	path := filepath.Join(t.TempDir(), "tune_log.csv")
	l, err := newEvalLog(path, pv, 3)
	if err != nil {
		t.Fatalf("newEvalLog: %v", err)
	}

	a := pv.DefaultVector()
	b := pv.DefaultVector()
	b[0] = 20
	l.Record(1.5, 1.6, a)
	l.Record(0.5, 0.6, b)
	l.Record(0.9, 1.0, a)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if l.Count() != 3 {
		t.Errorf("Count = %d, want 3", l.Count())
	}
	if l.BestFitness() != 0.5 || l.Best()[0] != 20 {
		t.Errorf("best = %v %v, want 0.5 with buffer 20", l.BestFitness(), l.Best())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3", len(lines))
	}
	if cols := strings.Split(lines[0], ","); len(cols) != 3+pv.Dim() || cols[3] != "safety_buffer" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "2,0.500000,0.600000,20.000000") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m00s"},
		{75 * time.Second, "1m15s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
