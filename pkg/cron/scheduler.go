// Package cron runs the statement inbox watcher on a robfig/cron schedule.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/budget-dashboard/internal/domain/import/service"
)

// RejectedDir is the inbox subdirectory unreadable files are moved to.
const RejectedDir = "rejected"

// Importer runs one file through the import pipeline.
type Importer interface {
	Import(ctx context.Context, filename string, data []byte, resolver importservice.Resolver) (*importservice.ImportResult, error)
}

// ScanReport lists what one inbox pass did with each file.
type ScanReport struct {
	Imported     []string
	Waiting      []string // need a person; left in the inbox
	Rejected     []string
	Failed       []string // import errored; left in the inbox for the next scan
	Transactions int
}

// Scheduler watches an inbox directory for bank statements.
type Scheduler struct {
	cron     *cron.Cron
	importer Importer
	inbox    string
	schedule string
	logger   *slog.Logger

	mu sync.Mutex
	// waiting remembers files already reported as needing confirmation, by
	// modification time, so an unchanged file is not retried every tick.
	waiting map[string]time.Time
}

// NewScheduler creates an inbox watcher. schedule is a standard 5-field cron
// expression or a descriptor such as "@every 1m".
func NewScheduler(importer Importer, inbox, schedule string, logger *slog.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		importer: importer,
		inbox:    inbox,
		schedule: schedule,
		logger:   logger,
		waiting:  make(map[string]time.Time),
	}
}

// Start begins watching.
func (s *Scheduler) Start() error {
	if err := os.MkdirAll(s.inbox, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox %s: %w", s.inbox, err)
	}

	_, err := s.cron.AddFunc(s.schedule, s.scan)
	if err != nil {
		return fmt.Errorf("invalid inbox schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("inbox watcher started",
		slog.String("inbox", s.inbox),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop stops the schedule. The returned context is done once a running scan
// has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("inbox watcher stopping")
	return s.cron.Stop()
}

// RunNow triggers a scan outside the schedule.
func (s *Scheduler) RunNow() {
	go s.scan()
}

func (s *Scheduler) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.ScanInbox(ctx); err != nil {
		s.logger.Error("inbox scan failed", slog.Any("error", err))
	}
}

// ScanInbox imports every statement in the inbox that resolves without a
// person. Imported files are removed, files that need confirmation stay where
// they are, and files that cannot be decoded move to RejectedDir. Any other
// failure, such as the ledger refusing the append, leaves the file in place to
// be retried on the next scan.
func (s *Scheduler) ScanInbox(ctx context.Context) (*ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	report := &ScanReport{}
	present := make(map[string]bool, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		present[name] = true

		path := filepath.Join(s.inbox, name)
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to stat inbox file", slog.String("file", name), slog.Any("error", err))
			continue
		}
		if seen, ok := s.waiting[name]; ok && seen.Equal(info.ModTime()) {
			report.Waiting = append(report.Waiting, name)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read inbox file", slog.String("file", name), slog.Any("error", err))
			continue
		}

		res, err := s.importer.Import(ctx, name, data, nil)
		switch {
		case err == nil:
			delete(s.waiting, name)
			report.Imported = append(report.Imported, name)
			report.Transactions += res.Imported
			if err := os.Remove(path); err != nil {
				s.logger.Warn("failed to remove imported file", slog.String("file", name), slog.Any("error", err))
			}
		case errors.Is(err, importservice.ErrConfirmationRequired):
			s.waiting[name] = info.ModTime()
			report.Waiting = append(report.Waiting, name)
			s.logger.Info("statement needs column confirmation; run `budget import` on it",
				slog.String("file", path))
		case ctx.Err() != nil:
			return report, ctx.Err()
		case isUndecodable(err):
			delete(s.waiting, name)
			report.Rejected = append(report.Rejected, name)
			s.logger.Warn("statement rejected",
				slog.String("file", name),
				slog.String("notice", importservice.NoticeFor(err).Message),
				slog.Any("error", err))
			if err := s.reject(path, name); err != nil {
				s.logger.Error("failed to move rejected file", slog.String("file", name), slog.Any("error", err))
			}
		default:
			delete(s.waiting, name)
			report.Failed = append(report.Failed, name)
			s.logger.Error("statement import failed; will retry",
				slog.String("file", name),
				slog.Any("error", err))
		}
	}

	for name := range s.waiting {
		if !present[name] {
			delete(s.waiting, name)
		}
	}

	if len(report.Imported)+len(report.Rejected)+len(report.Failed) > 0 {
		s.logger.Info("inbox scan completed",
			slog.Int("imported_files", len(report.Imported)),
			slog.Int("transactions", report.Transactions),
			slog.Int("waiting", len(report.Waiting)),
			slog.Int("rejected", len(report.Rejected)),
			slog.Int("failed", len(report.Failed)),
		)
	}
	return report, nil
}

// isUndecodable reports whether err means the file itself cannot be read as a
// statement, as opposed to a failure a later scan may not hit.
func isUndecodable(err error) bool {
	return errors.Is(err, parser.ErrUnsupportedFormat) ||
		errors.Is(err, parser.ErrDecoderUnavailable) ||
		errors.Is(err, parser.ErrDecodeParseFailure)
}

func (s *Scheduler) reject(path, name string) error {
	dir := filepath.Join(s.inbox, RejectedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, name))
}
