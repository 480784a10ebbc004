package ui

import (
	"testing"

	"github.com/dhkim0920/coinfolio/internal/api"
)

func TestNextChartRange(t *testing.T) {
	if got := nextChartRange("24h"); got != "12h" {
		t.Fatalf("nextChartRange(24h) = %q, want 12h", got)
	}
	if got := nextChartRange("6h"); got != "24h" {
		t.Fatalf("nextChartRange(6h) = %q, want 24h", got)
	}
	if got := nextChartRange("bogus"); got != "24h" {
		t.Fatalf("nextChartRange(bogus) = %q, want 24h", got)
	}
}

func TestChartWindow(t *testing.T) {
	points := make([]api.HistoryPoint, 12)
	for i := range points {
		points[i].Time = string(rune('a' + i))
	}

	if got := chartWindow(points, "24h"); len(got) != 12 {
		t.Fatalf("24h window = %d points, want all 12", len(got))
	}

	half := chartWindow(points, "12h")
	if len(half) != 6 {
		t.Fatalf("12h window = %d points, want 6", len(half))
	}
	if half[len(half)-1].Time != points[len(points)-1].Time {
		t.Fatal("window must keep the most recent points")
	}

	// Never shrinks below a drawable pair.
	tiny := chartWindow(points[:3], "6h")
	if len(tiny) != 2 {
		t.Fatalf("6h window of 3 = %d points, want 2", len(tiny))
	}

	if got := chartWindow(points, "unknown"); len(got) != 12 {
		t.Fatalf("unknown range = %d points, want all", len(got))
	}
}
