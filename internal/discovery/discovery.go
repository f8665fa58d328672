// Package discovery selects the next unprocessed batch file and keeps
// the ledger of files already handled.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNoEligibleFile = errors.New("no eligible batch file")

const (
	filePrefix = "bpy331_"
	fileSuffix = ".dat"
)

type Finder struct {
	dir    string
	ledger string
	settle time.Duration
}

// NewFinder scans dir for batch files. Files modified within the settle
// window are skipped so a file still being transferred is never picked up.
func NewFinder(dir, ledgerPath string, settle time.Duration) *Finder {
	return &Finder{dir: dir, ledger: ledgerPath, settle: settle}
}

// Next returns the most recently modified batch file that is outside the
// settle window and not yet in the processed ledger.
func (f *Finder) Next(now time.Time) (string, error) {
	processed, err := f.readLedger()
	if err != nil {
		return "", err
	}

	cutoff := now.Add(-f.settle)
	var best string
	var bestMod time.Time

	err = filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			return nil
		}
		if processed[path] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if info.ModTime().After(bestMod) {
			best, bestMod = path, info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", f.dir, err)
	}
	if best == "" {
		return "", ErrNoEligibleFile
	}
	return best, nil
}

// MarkProcessed appends a path to the ledger. Call only after the
// rewritten file has been durably written.
func (f *Finder) MarkProcessed(path string) error {
	if dir := filepath.Dir(f.ledger); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	file, err := os.OpenFile(f.ledger, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open processed ledger: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, path); err != nil {
		return fmt.Errorf("append to processed ledger: %w", err)
	}
	return nil
}

func (f *Finder) readLedger() (map[string]bool, error) {
	data, err := os.ReadFile(f.ledger)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read processed ledger: %w", err)
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			seen[line] = true
		}
	}
	return seen, nil
}
