package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jwhitehead/payagg/internal/bpy331"
	"github.com/jwhitehead/payagg/internal/discovery"
)

// write backs up the original file, writes the aggregated records to the
// output path via a temp file and rename, then appends the source to the
// processed ledger. The ledger is only touched once the output rename
// has succeeded, so any earlier failure leaves the file retryable.
func (p *Pipeline) write(source, header string, records []bpy331.Record, parsed int, finder *discovery.Finder) (*Summary, error) {
	archive := filepath.Join(p.cfg.ArchiveDir, filepath.Base(source))
	if err := copyFile(source, archive); err != nil {
		return nil, fmt.Errorf("back up %s: %w", source, err)
	}

	out := source
	if p.cfg.OutputDir != "" {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		out = filepath.Join(p.cfg.OutputDir, filepath.Base(source))
	}

	data := bpy331.Serialize(header, records)
	if err := writeAtomic(out, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", out, err)
	}

	if err := finder.MarkProcessed(source); err != nil {
		// The output is durable at this point; surface the error so the
		// operator knows the file could be picked up again.
		return nil, fmt.Errorf("record processed file: %w", err)
	}

	return &Summary{
		SourcePath: source,
		OutputPath: out,
		Parsed:     parsed,
		Written:    len(records),
		Message: fmt.Sprintf("successfully written %d/%d payments to %s (%d records read)",
			len(records), len(records), out, parsed),
	}, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeAtomic writes into a temp file in the target directory and renames
// it into place, so a failed run never leaves a partial output file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".payagg-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
