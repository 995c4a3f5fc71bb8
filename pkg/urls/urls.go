// Package urls provides utility functions for working with video URLs.
package urls

import (
	"regexp"
	"strings"
)

// reSingleVideo matches a single-video reference: optional scheme, optional
// www, either the canonical watch URL or the short-link host, an 11-character
// video identifier, and optional trailing query/fragment characters
// (timestamps, playlist markers) which are accepted but not stripped.
var reSingleVideo = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})([\[\]()\w\s=&%#@!?+\-_.:;'"]*)?$`,
)

// IsSingleVideo reports whether the trimmed line is a well-formed reference
// to a single video.
func IsSingleVideo(line string) bool {
	return reSingleVideo.MatchString(strings.TrimSpace(line))
}

// VideoID extracts the 11-character video identifier from a single-video
// reference. The second return is false when the line does not match.
func VideoID(line string) (string, bool) {
	m := reSingleVideo.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}

	return m[4], true
}
