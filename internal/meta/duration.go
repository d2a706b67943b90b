package meta

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// EnsureDuration decodes the stream headers of the file at path to
// compute its duration. This is the expensive lazy path used when tags
// carry no duration; the caller caches the result. Returns 0 when the
// file cannot be decoded.
func (e *Extractor) EnsureDuration(path string) time.Duration {
	f, err := os.Open(path)
	if err != nil {
		e.log.Debug("duration probe open failed", slog.String("path", path), slog.Any("error", err))
		return 0
	}

	streamer, format, err := decode(f, path)
	if err != nil {
		_ = f.Close()
		e.log.Debug("duration probe decode failed", slog.String("path", path), slog.Any("error", err))
		return 0
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len())
}

// decode selects a decoder by file extension. The decoder takes ownership
// of the reader and closes it via the returned streamer.
func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	case ".wav":
		return wav.Decode(f)
	default:
		return mp3.Decode(f)
	}
}
