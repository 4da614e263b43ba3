// Package file serves Notion documents saved on the local disk, so a
// snapshot can be replayed without network access.
package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadPageList reads a page list file: one saved query result page per
// line, in the order the pages were fetched. Blank lines and lines starting
// with '#' are skipped. Relative entries are resolved against the directory
// of the list file.
func ReadPageList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("page list: %w", err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("page list %s: %w", path, err)
	}
	return out, nil
}
