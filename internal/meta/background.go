package meta

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var quotedName = regexp.MustCompile(`"([^"]+)"`)

// imageExts are the background formats beatmap descriptors reference.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// LocateBackgroundImage finds the first .osu descriptor in folder and
// parses its [Events] section for the first quoted image filename. The
// name is resolved relative to the folder, trying the raw form first and
// then a slash-normalized variant (descriptors written on Windows may
// embed backslashes). Returns "" unless the resolved file exists; any
// parse irregularity yields "" rather than an error.
func LocateBackgroundImage(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".osu") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	f, err := os.Open(filepath.Join(folder, names[0]))
	if err != nil {
		return ""
	}
	defer f.Close()

	inEvents := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "[Events]" {
			inEvents = true
			continue
		}
		if !inEvents {
			continue
		}
		if strings.HasPrefix(line, "[") {
			// next section
			break
		}
		m := quotedName.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		imgName := m[1]
		if !imageExts[strings.ToLower(filepath.Ext(imgName))] {
			continue
		}
		candidate := filepath.Join(folder, imgName)
		if fileExists(candidate) {
			return candidate
		}
		// descriptors sometimes reference subfolders with backslashes
		normalized := filepath.Join(folder, filepath.FromSlash(strings.ReplaceAll(imgName, `\`, "/")))
		if fileExists(normalized) {
			return normalized
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
