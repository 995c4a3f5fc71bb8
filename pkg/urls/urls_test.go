package urls_test

import (
	"testing"

	"otodake/pkg/urls"
)

func TestIsSingleVideo(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{name: "canonical", line: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "canonical no www", line: "https://youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "canonical no scheme", line: "www.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "short link", line: "https://youtu.be/abcdefghijk", want: true},
		{name: "short link bare", line: "youtu.be/abcdefghijk", want: true},
		{name: "http scheme", line: "http://youtu.be/abcdefghijk", want: true},
		{name: "timestamp suffix", line: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", want: true},
		{name: "playlist marker suffix", line: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", want: true},
		{name: "short link with query", line: "https://youtu.be/dQw4w9WgXcQ?si=share", want: true},
		{name: "surrounding whitespace", line: "  https://youtu.be/abcdefghijk  ", want: true},
		{name: "not a url", line: "not a url", want: false},
		{name: "identifier too short", line: "https://youtu.be/abc", want: false},
		{name: "wrong host", line: "https://vimeo.com/123456789", want: false},
		{name: "channel page", line: "https://www.youtube.com/@somechannel", want: false},
		{name: "empty", line: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urls.IsSingleVideo(tt.line); got != tt.want {
				t.Errorf("IsSingleVideo(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{name: "canonical", line: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		{name: "short link", line: "https://youtu.be/abcdefghijk", want: "abcdefghijk", wantOK: true},
		{name: "suffix ignored", line: "https://youtu.be/abcdefghijk?t=10", want: "abcdefghijk", wantOK: true},
		{name: "no match", line: "https://example.com/watch?v=dQw4w9WgXcQ", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := urls.VideoID(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("VideoID(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}

			if got != tt.want {
				t.Errorf("VideoID(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
