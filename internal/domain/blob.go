package domain

import (
	"io"
	"regexp"
	"strconv"
	"time"
)

// MaxImageSize matches the limit enforced by the admin form.
const MaxImageSize = 5 * 1024 * 1024

// Blob is an image file handed over by the admin UI.
type Blob struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Present reports whether the blob carries a readable body.
func (b *Blob) Present() bool {
	return b != nil && b.Body != nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// SanitizeFilename strips every character except ASCII letters, digits and dots.
func SanitizeFilename(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "")
}

// ImageKey builds the object key images/<unix-millis>_<sanitized filename>.
func ImageKey(now time.Time, filename string) string {
	return "images/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + SanitizeFilename(filename)
}
