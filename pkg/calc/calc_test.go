package calc_test

import (
	"testing"
	"time"

	"otodake/pkg/calc"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name       string
		downloaded int
		total      int
		want       int
	}{
		{name: "halfway", downloaded: 50, total: 100, want: 50},
		{name: "rounds", downloaded: 1, total: 3, want: 33},
		{name: "zero total", downloaded: 10, total: 0, want: 0},
		{name: "unknown total", downloaded: 10, total: -1, want: 0},
		{name: "complete", downloaded: 100, total: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.Progress(tt.downloaded, tt.total); got != tt.want {
				t.Errorf("Progress(%d, %d) = %d, want %d", tt.downloaded, tt.total, got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "plain", in: "42.3%", want: 42.3},
		{name: "padded", in: "  5.5% ", want: 5.5},
		{name: "no suffix", in: "100", want: 100},
		{name: "empty", in: "", want: 0},
		{name: "not a number", in: "N/A", want: 0},
		{name: "garbage", in: "---%", want: 0},
		{name: "negative clamps", in: "-3%", want: 0},
		{name: "overshoot clamps", in: "150%", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.ParsePercent(tt.in); got != tt.want {
				t.Errorf("ParsePercent(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapToBand(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		base    int
		width   int
		want    int
	}{
		{name: "start of band", percent: 0, base: 10, width: 70, want: 10},
		{name: "end of band", percent: 100, base: 10, width: 70, want: 80},
		{name: "middle", percent: 50, base: 10, width: 70, want: 45},
		{name: "clamped low", percent: -20, base: 10, width: 70, want: 10},
		{name: "clamped high", percent: 120, base: 10, width: 70, want: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.MapToBand(tt.percent, tt.base, tt.width); got != tt.want {
				t.Errorf("MapToBand(%v, %d, %d) = %d, want %d", tt.percent, tt.base, tt.width, got, tt.want)
			}
		})
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "bytes", n: 512, want: "512B"},
		{name: "kibibytes", n: 2048, want: "2.00KiB"},
		{name: "mebibytes", n: 5 * 1024 * 1024, want: "5.00MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.HumanBytes(tt.n); got != tt.want {
				t.Errorf("HumanBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestETA(t *testing.T) {
	started := time.Now().Add(-10 * time.Second)

	eta := calc.ETA(50, 100, started)
	if eta < 9*time.Second || eta > 11*time.Second {
		t.Errorf("ETA(50, 100) = %v, want about 10s", eta)
	}

	if got := calc.ETA(0, 100, started); got != 0 {
		t.Errorf("ETA with nothing downloaded = %v, want 0", got)
	}

	if got := calc.ETA(50, 0, started); got != 0 {
		t.Errorf("ETA with unknown total = %v, want 0", got)
	}
}
