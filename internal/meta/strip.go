// Package meta extracts and derives track metadata: tag reading with
// layered fallbacks, lazy duration probing, folder-name heuristics and
// the beatmap background-image lookup.
package meta

import (
	"regexp"
	"strings"
)

// leadingIDPattern matches the numeric beatmap id prefix of an osu! song
// folder, e.g. "311328 Foo" or "12_Bar".
var leadingIDPattern = regexp.MustCompile(`^\s*\d+[\s._-]*`)

// StripLeadingID removes a leading numeric id and its separators from a
// folder or file name. Idempotent: stripping an already-stripped name is
// a no-op. A name consisting only of digits is returned unchanged so the
// derived title is never empty.
func StripLeadingID(name string) string {
	stripped := leadingIDPattern.ReplaceAllString(name, "")
	if stripped == "" {
		return name
	}
	return stripped
}

// ParseArtistFromFolder derives an artist from the osu! folder naming
// convention "Artist - Title". Returns "" when the name does not follow
// the convention.
func ParseArtistFromFolder(folderTitle string) string {
	if i := strings.Index(folderTitle, " - "); i > 0 {
		return strings.TrimSpace(folderTitle[:i])
	}
	return ""
}
