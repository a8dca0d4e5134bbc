// Package scan enumerates candidate workbook files in a folder.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultLockPrefix marks the transient lock files Excel leaves next to open workbooks.
const DefaultLockPrefix = "~$"

// FileInfo describes one candidate workbook.
type FileInfo struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Result holds the files found under a folder.
type Result struct {
	RootDir   string     `json:"rootDir"`
	Files     []FileInfo `json:"files"`
	Skipped   []string   `json:"skipped,omitempty"`
	ScannedAt time.Time  `json:"scannedAt"`
}

// Options configures Scan.
type Options struct {
	Recursive  bool
	Extensions []string // defaults to .xlsx
	LockPrefix string   // defaults to ~$
	Exclude    []string // base names to skip, compared case-insensitively
}

// Scan lists workbook files directly under root (or below it when Recursive),
// sorted by path.
func Scan(root string, opts Options) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("could not access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	exts := normalizeExtensions(opts.Extensions)
	lockPrefix := opts.LockPrefix
	if lockPrefix == "" {
		lockPrefix = DefaultLockPrefix
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[strings.ToLower(name)] = true
	}

	result := &Result{
		RootDir:   root,
		ScannedAt: time.Now(),
	}

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !exts[ext] {
			return nil
		}
		if strings.HasPrefix(name, lockPrefix) || exclude[strings.ToLower(name)] {
			return nil
		}

		finfo, err := d.Info()
		if err != nil {
			result.Skipped = append(result.Skipped, path)
			return nil
		}

		result.Files = append(result.Files, FileInfo{
			Path:       path,
			Name:       name,
			Extension:  ext,
			Size:       finfo.Size(),
			ModifiedAt: finfo.ModTime(),
		})
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	return result, nil
}

// IsCandidate reports whether a single path would be picked up by Scan with opts.
func IsCandidate(path string, opts Options) bool {
	name := filepath.Base(path)
	lockPrefix := opts.LockPrefix
	if lockPrefix == "" {
		lockPrefix = DefaultLockPrefix
	}
	if strings.HasPrefix(name, lockPrefix) {
		return false
	}
	for _, ex := range opts.Exclude {
		if strings.EqualFold(ex, name) {
			return false
		}
	}
	return normalizeExtensions(opts.Extensions)[strings.ToLower(filepath.Ext(name))]
}

func normalizeExtensions(in []string) map[string]bool {
	if len(in) == 0 {
		in = []string{".xlsx"}
	}
	out := make(map[string]bool, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = true
	}
	return out
}

// FormatSize returns a human-readable file size.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
