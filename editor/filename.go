package editor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateFilename derives a download name from a title, for example
// "My Painting!" exported on 2024-03-01 becomes "my-painting-2024-03-01.jpg".
// Titles without usable characters fall back to "artwork-<unix millis>".
func GenerateFilename(title string, at time.Time) string {
	base := strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = fmt.Sprintf("artwork-%d", at.UnixNano()/int64(time.Millisecond))
	}

	return fmt.Sprintf("%s-%s.jpg", base, at.UTC().Format("2006-01-02"))
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with base 1024 units and at most two
// decimals, e.g. 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	v, i := float64(bytes), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
