package meta

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/osutune/internal/domain"
)

// Extractor reads track metadata through an ordered chain of strategies:
// structured tag reading first, then raw ID3 frames, then a
// filename-derived title. The first strategy that yields a title wins.
// Extraction never fails past this boundary; the worst case is a record
// with only the filename fallback title.
type Extractor struct {
	log        *slog.Logger
	strategies []strategy
}

// strategy attempts to read metadata for a file. ok is false when the
// strategy produced nothing usable and the chain should continue.
type strategy func(path string) (m domain.TrackMeta, ok bool)

// NewExtractor creates a metadata extractor.
func NewExtractor(log *slog.Logger) *Extractor {
	e := &Extractor{log: log}
	e.strategies = []strategy{
		e.readTagged,
		e.readID3Frames,
	}
	return e
}

// Extract reads tags from the file at path. The returned record always
// carries a non-empty title and the file's current freshness stamp.
func (e *Extractor) Extract(path string) domain.TrackMeta {
	var m domain.TrackMeta
	for _, s := range e.strategies {
		if got, ok := s(path); ok {
			m = got
			break
		}
	}
	if m.Title == "" {
		m.Title = titleFromFilename(path)
	}
	if info, err := os.Stat(path); err == nil {
		m.ModTime = info.ModTime().Unix()
		m.Size = info.Size()
	}
	return m
}

// readTagged is the primary strategy using the structured tag reader.
func (e *Extractor) readTagged(path string) (domain.TrackMeta, bool) {
	f, err := os.Open(path)
	if err != nil {
		e.log.Debug("metadata open failed", slog.String("path", path), slog.Any("error", err))
		return domain.TrackMeta{}, false
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil || t.Title() == "" {
		return domain.TrackMeta{}, false
	}
	return domain.TrackMeta{
		Title:  t.Title(),
		Artist: t.Artist(),
		Album:  t.Album(),
	}, true
}

// readID3Frames reads raw ID3v2 frames directly. The structured reader
// chokes on some UTF-16 encoded tags that this path handles fine.
func (e *Extractor) readID3Frames(path string) (domain.TrackMeta, bool) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return domain.TrackMeta{}, false
	}
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		e.log.Debug("id3v2 parse failed", slog.String("path", path), slog.Any("error", err))
		return domain.TrackMeta{}, false
	}
	defer id3tag.Close()

	title := id3tag.Title()
	if title == "" {
		title = textFrame(id3tag, "TIT2")
	}
	if title == "" {
		return domain.TrackMeta{}, false
	}
	artist := id3tag.Artist()
	if artist == "" {
		artist = textFrame(id3tag, "TPE1")
	}
	album := id3tag.Album()
	if album == "" {
		album = textFrame(id3tag, "TALB")
	}
	return domain.TrackMeta{
		Title:  title,
		Artist: artist,
		Album:  album,
	}, true
}

// textFrame reads a text frame value from an ID3v2 tag.
func textFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return strings.TrimSpace(tf.Text)
	}
	return ""
}

// titleFromFilename is the last-resort title: the file stem with any
// leading numeric id stripped.
func titleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return StripLeadingID(stem)
}

// Verify that Extractor satisfies the metadata provider contract.
var _ interface {
	Extract(string) domain.TrackMeta
	EnsureDuration(string) time.Duration
} = (*Extractor)(nil)
