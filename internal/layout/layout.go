// Package layout computes on-disk locations for capture output.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streamvault/internal/textutil"
)

const (
	mediaExt         = ".mp4"
	transcriptSuffix = "-chat.json"
	dateLayout       = "2006-01-02"

	fallbackTitle    = "stream"
	fallbackStreamer = "unknown"

	maxCollisionAttempts = 1000
)

// Paths holds the output locations for one broadcast capture.
type Paths struct {
	Dir        string
	Media      string
	Transcript string
}

// BuildPaths returns <base>/<streamer>/<title>-<YYYY-MM-DD>.mp4 and the
// matching -chat.json transcript path. The title is sanitized, the date is
// rendered in UTC, and an empty sanitized title falls back to "stream".
func BuildPaths(baseDir, streamerName, title string, date time.Time) Paths {
	dir := filepath.Join(baseDir, streamerDir(streamerName))
	stem := baseName(title, date)
	return Paths{
		Dir:        dir,
		Media:      filepath.Join(dir, stem+mediaExt),
		Transcript: filepath.Join(dir, stem+transcriptSuffix),
	}
}

// WithSuffix returns a copy of p whose file names carry "-<suffix>" before
// their extension.
func (p Paths) WithSuffix(suffix string) Paths {
	suffix = strings.ReplaceAll(textutil.SanitizeFileName(suffix), " ", "_")
	if suffix == "" {
		return p
	}
	return Paths{
		Dir:        p.Dir,
		Media:      strings.TrimSuffix(p.Media, mediaExt) + "-" + suffix + mediaExt,
		Transcript: strings.TrimSuffix(p.Transcript, transcriptSuffix) + "-" + suffix + transcriptSuffix,
	}
}

// Resolve returns p unchanged unless either file already exists. It then
// tries "-<broadcastID>" and, if that is taken too, "-<broadcastID>-2",
// "-<broadcastID>-3" and so on, so no earlier capture is overwritten.
func (p Paths) Resolve(broadcastID string) (Paths, error) {
	taken, err := p.taken()
	if err != nil || !taken {
		return p, err
	}
	suffix := strings.TrimSpace(broadcastID)
	if suffix == "" {
		suffix = "dup"
	}
	for n := 1; n <= maxCollisionAttempts; n++ {
		candidate := p.WithSuffix(suffix)
		if n > 1 {
			candidate = p.WithSuffix(fmt.Sprintf("%s-%d", suffix, n))
		}
		taken, err := candidate.taken()
		if err != nil {
			return p, err
		}
		if !taken {
			return candidate, nil
		}
	}
	return p, fmt.Errorf("no free capture path for %s after %d attempts", p.Media, maxCollisionAttempts)
}

func (p Paths) taken() (bool, error) {
	for _, candidate := range []string{p.Media, p.Transcript} {
		exists, err := fileExists(candidate)
		if err != nil || exists {
			return exists, err
		}
	}
	return false, nil
}

func baseName(title string, date time.Time) string {
	clean := textutil.SanitizeTitle(title)
	if clean == "" {
		clean = fallbackTitle
	}
	return clean + "-" + date.UTC().Format(dateLayout)
}

func streamerDir(name string) string {
	dir := textutil.SanitizeFileName(name)
	if dir == "" {
		return fallbackStreamer
	}
	return dir
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
