// Package pipeline drives one aggregation run: discover a batch file,
// parse it, resolve payee references, aggregate, rewrite the file and
// record it as processed. Stages run strictly in that order and any
// failure aborts the run before the ledger is touched, leaving the file
// eligible for retry.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jwhitehead/payagg/internal/aggregate"
	"github.com/jwhitehead/payagg/internal/bpy331"
	"github.com/jwhitehead/payagg/internal/config"
	"github.com/jwhitehead/payagg/internal/discovery"
	"github.com/jwhitehead/payagg/internal/refstore"
)

type Resolver interface {
	Resolve(ctx context.Context, id refstore.Identity) (string, error)
}

type Notifier interface {
	Send(path, summary string) error
}

type Pipeline struct {
	cfg    config.Config
	store  Resolver
	mailer Notifier // nil disables notifications
	log    *zap.Logger
	now    func() time.Time
}

func New(cfg config.Config, store Resolver, mailer Notifier, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
}

type Summary struct {
	SourcePath string
	OutputPath string
	Parsed     int
	Written    int
	Message    string
}

func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	now := p.now()

	finder := discovery.NewFinder(p.cfg.DataDir, p.cfg.LedgerPath, p.cfg.Settle())
	source, err := finder.Next(now)
	if err != nil {
		return nil, err
	}
	p.log.Info("selected batch file", zap.String("path", source))

	header, lines, err := readBatch(source)
	if err != nil {
		return nil, err
	}

	records, err := bpy331.Parse(lines, bpy331.DefaultsAt(now))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	p.log.Info("parsed payment records", zap.Int("count", len(records)))

	for i := range records {
		ref, err := p.store.Resolve(ctx, refstore.IdentityOf(records[i]))
		if err != nil {
			return nil, fmt.Errorf("resolve payee references: %w", err)
		}
		records[i].AccountRef = ref
	}

	summed := aggregate.Sum(records, p.log)
	p.log.Info("aggregated records",
		zap.Int("records", len(records)),
		zap.Int("groups", len(summed)))

	summary, err := p.write(source, header, summed, len(records), finder)
	if err != nil {
		return nil, err
	}
	p.log.Info("run complete", zap.String("summary", summary.Message))

	if p.mailer != nil {
		if err := p.mailer.Send(source, summary.Message); err != nil {
			// Output is already durable, so a failed notification never
			// fails the run.
			p.log.Warn("notification failed", zap.Error(err))
		}
	}
	return summary, nil
}

// readBatch splits the file into its header line and the full line set
// Parse expects. A final newline does not count as an extra line.
func readBatch(path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return "", nil, fmt.Errorf("read %s: %w", path, bpy331.ParseError{Line: 0, Message: "empty file, missing header"})
	}
	return lines[0], lines, nil
}
