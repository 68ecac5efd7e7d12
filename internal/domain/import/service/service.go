// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/assembler"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/sniffer"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/budget-dashboard/pkg/metrics"
	"github.com/FACorreiaa/budget-dashboard/pkg/storage"
)

var (
	// ErrCancelled is returned when the gate was cancelled; nothing was imported.
	ErrCancelled = errors.New("import cancelled")
	// ErrConfirmationRequired is returned by Import when the batch needs a
	// person and no resolver was given.
	ErrConfirmationRequired = errors.New("column mapping needs confirmation")
)

const tracerName = "github.com/FACorreiaa/budget-dashboard/internal/domain/import/service"

// Ledger is the destination of imported transactions.
type Ledger interface {
	Categories() []categorization.Category
	Rules() []categorization.KeywordRule
	Append(ctx context.Context, txs []ledger.Transaction) error
	Mapping(fingerprint string) (ledger.RememberedMapping, bool)
	SaveMapping(ctx context.Context, m ledger.RememberedMapping) error
}

// Resolver settles an awaiting gate, usually by asking a person. It must
// leave the gate Ready or Cancelled, or return an error.
type Resolver interface {
	Resolve(ctx context.Context, g *gate.Gate) error
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, g *gate.Gate) error

func (f ResolverFunc) Resolve(ctx context.Context, g *gate.Gate) error { return f(ctx, g) }

// ImportResult summarizes one completed import.
type ImportResult struct {
	BatchID        string
	Filename       string
	Imported       int
	Dropped        int
	AmountFailures int
	Undated        int
	Transactions   []ledger.Transaction
	Notice         Notice
}

// ImportService runs the statement pipeline: decode, infer, gate, assemble
// and hand off to the ledger.
type ImportService struct {
	decoder  *parser.Decoder
	registry *preset.Registry
	ledger   Ledger
	policy   gate.Policy
	logger   *slog.Logger

	metrics   *metrics.Metrics
	archive   storage.Archive
	fileRules []categorization.KeywordRule
	tracer    trace.Tracer
	now       func() time.Time

	// handoff serializes classify+append so concurrent batches never interleave.
	handoff sync.Mutex
}

// NewImportService creates a new import service
func NewImportService(decoder *parser.Decoder, registry *preset.Registry, l Ledger, policy gate.Policy, logger *slog.Logger) *ImportService {
	return &ImportService{
		decoder:  decoder,
		registry: registry,
		ledger:   l,
		policy:   policy,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// WithMetrics records pipeline counters.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithArchive keeps a copy of every decoded upload.
func (s *ImportService) WithArchive(a storage.Archive) *ImportService {
	s.archive = a
	return s
}

// WithRules adds keyword rules, typically from a rules file, that are checked
// before the ledger's own user rules.
func (s *ImportService) WithRules(rules []categorization.KeywordRule) *ImportService {
	s.fileRules = append([]categorization.KeywordRule(nil), rules...)
	return s
}

// Registry returns the preset registry gates are opened with.
func (s *ImportService) Registry() *preset.Registry {
	return s.registry
}

// Begin decodes a file and opens its gate. Decode failures are returned as
// errors and leave the ledger untouched; ambiguity is never an error.
func (s *ImportService) Begin(ctx context.Context, filename string, data []byte) (*gate.Gate, error) {
	ctx, span := s.tracer.Start(ctx, "import.Begin", trace.WithAttributes(
		attribute.String("import.filename", filename),
		attribute.Int("import.bytes", len(data)),
	))
	defer span.End()

	start := s.now()
	table, err := s.decoder.Decode(filename, data)
	s.metrics.DecodeDuration(s.now().Sub(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		s.metrics.ImportFinished(metrics.OutcomeFailed)
		s.logger.Warn("statement decode failed", slog.String("filename", filename), slog.Any("error", err))
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	analysis := sniffer.Analyze(table.Rows, s.registry)

	batchID, err := assembler.NewBatchID()
	if err != nil {
		return nil, err
	}

	batch := gate.Batch{
		ID:                  batchID,
		Filename:            filename,
		Headers:             analysis.Headers,
		Rows:                analysis.Rows,
		Headerless:          analysis.Headerless,
		Mapping:             analysis.Mapping,
		DescriptionRejected: analysis.DescriptionRejected,
		SuggestedPreset:     analysis.SuggestedPreset,
		Fingerprint:         analysis.Fingerprint,
	}
	if remembered, ok := s.ledger.Mapping(analysis.Fingerprint); ok {
		m := remembered.Mapping
		batch.Remembered = &m
	}

	g := gate.Open(batch, s.registry, s.policy)

	span.SetAttributes(
		attribute.String("import.batch_id", batchID),
		attribute.Int("import.rows", len(analysis.Rows)),
		attribute.String("import.gate_state", g.State().String()),
		attribute.String("import.preset", analysis.SuggestedPreset),
	)
	if g.State() == gate.StateAwaitingConfirmation {
		s.metrics.GateOpened(string(g.Reason()))
	}

	s.logger.Info("statement decoded",
		slog.String("batch_id", batchID),
		slog.String("filename", filename),
		slog.String("format", string(table.Format)),
		slog.Int("rows", len(analysis.Rows)),
		slog.Bool("headerless", analysis.Headerless),
		slog.String("preset", analysis.SuggestedPreset),
		slog.String("gate", g.State().String()),
		slog.String("reason", string(g.Reason())),
	)

	s.archiveUpload(ctx, filename, batchID, data)
	return g, nil
}

func (s *ImportService) archiveUpload(ctx context.Context, filename, batchID string, data []byte) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(ctx, filename, batchID, bytes.NewReader(data)); err != nil {
		s.logger.Warn("failed to archive statement",
			slog.String("batch_id", batchID),
			slog.String("filename", filename),
			slog.Any("error", err))
	}
}

// Complete assembles a Ready gate and appends the transactions. A mapping that
// a person confirmed is remembered for the file's header fingerprint.
func (s *ImportService) Complete(ctx context.Context, g *gate.Gate) (*ImportResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Complete")
	defer span.End()

	if g.State() == gate.StateCancelled {
		s.metrics.ImportFinished(metrics.OutcomeCancelled)
		return nil, ErrCancelled
	}
	mapping, rows, err := g.Result()
	if err != nil {
		return nil, err
	}
	batch := g.Batch()
	span.SetAttributes(attribute.String("import.batch_id", batch.ID))

	s.handoff.Lock()
	defer s.handoff.Unlock()

	rules := append(append([]categorization.KeywordRule(nil), s.fileRules...), s.ledger.Rules()...)
	classifier := categorization.NewClassifier(s.ledger.Categories(), rules)
	res := assembler.Assemble(rows, mapping, classifier, assembler.Options{
		BatchID: batch.ID,
		Now:     s.now(),
	})

	if err := s.ledger.Append(ctx, res.Transactions); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.metrics.ImportFinished(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to store batch %s: %w", batch.ID, err)
	}

	if g.Reason() != gate.ReasonNone && batch.Fingerprint != "" {
		remembered := ledger.RememberedMapping{
			Fingerprint: batch.Fingerprint,
			Mapping:     mapping,
			PresetKey:   batch.PresetKey,
		}
		if err := s.ledger.SaveMapping(ctx, remembered); err != nil {
			s.logger.Warn("failed to remember column mapping",
				slog.String("batch_id", batch.ID), slog.Any("error", err))
		}
	}

	s.metrics.RowsAssembled(len(res.Transactions), res.Dropped, res.AmountFailures)
	s.metrics.ImportFinished(metrics.OutcomeImported)
	span.SetAttributes(
		attribute.Int("import.imported", len(res.Transactions)),
		attribute.Int("import.dropped", res.Dropped),
	)

	s.logger.Info("statement imported",
		slog.String("batch_id", batch.ID),
		slog.String("filename", batch.Filename),
		slog.Int("imported", len(res.Transactions)),
		slog.Int("dropped", res.Dropped),
		slog.Int("amount_failures", res.AmountFailures),
		slog.Int("undated", res.Undated),
	)

	return &ImportResult{
		BatchID:        batch.ID,
		Filename:       batch.Filename,
		Imported:       len(res.Transactions),
		Dropped:        res.Dropped,
		AmountFailures: res.AmountFailures,
		Undated:        res.Undated,
		Transactions:   res.Transactions,
		Notice:         ImportedNotice(len(res.Transactions)),
	}, nil
}

// Import runs the whole pipeline for one file. An awaiting gate is handed to
// resolver and the call blocks until it settles or ctx is done. With a nil
// resolver an awaiting gate is cancelled and ErrConfirmationRequired returned.
func (s *ImportService) Import(ctx context.Context, filename string, data []byte, resolver Resolver) (*ImportResult, error) {
	g, err := s.Begin(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	if g.State() == gate.StateAwaitingConfirmation {
		if resolver == nil {
			_ = g.Cancel()
			return nil, ErrConfirmationRequired
		}
		if err := resolver.Resolve(ctx, g); err != nil {
			_ = g.Cancel()
			s.metrics.ImportFinished(metrics.OutcomeCancelled)
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}

	state, err := g.Wait(ctx)
	if err != nil {
		s.metrics.ImportFinished(metrics.OutcomeCancelled)
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if state == gate.StateCancelled {
		s.metrics.ImportFinished(metrics.OutcomeCancelled)
		return nil, ErrCancelled
	}
	return s.Complete(ctx, g)
}
