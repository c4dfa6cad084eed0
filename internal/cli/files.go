package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandPaths resolves upload arguments into a sorted, de-duplicated list of regular files.
// Arguments may be plain paths, directories (walked recursively) or doublestar patterns
// such as "docs/**/*.pdf". When exts is non-empty, files found by pattern or directory
// walk are filtered by extension; explicitly named files are always kept.
func ExpandPaths(args []string, exts []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil {
			if !info.IsDir() {
				add(filepath.Clean(arg))
				continue
			}
			matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**", "*"), doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", arg, err)
			}
			for _, m := range matches {
				if hasExtension(m, exts) {
					add(m)
				}
			}
			continue
		}
		if !doublestar.ValidatePathPattern(arg) {
			return nil, fmt.Errorf("invalid pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if hasExtension(m, exts) {
				add(m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func hasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
