// Package handler exposes the import pipeline over HTTP. Uploads that need a
// person stay pending between requests until they are committed, cancelled or
// expire.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/budget-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/budget-dashboard/pkg/httpx"
)

const defaultMaxUpload = 10 << 20

// ImportHandler serves the import endpoints.
type ImportHandler struct {
	importSvc *importservice.ImportService
	pending   *Pending
	maxUpload int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, pending *Pending, maxUpload int64, logger *slog.Logger) *ImportHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &ImportHandler{
		importSvc: importSvc,
		pending:   pending,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Routes mounts the import endpoints on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Get("/presets", h.ListPresets)
	r.Route("/imports", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetImport)
			r.Post("/preset", h.ApplyPreset)
			r.Put("/mapping", h.SetMapping)
			r.Get("/preview", h.Preview)
			r.Post("/commit", h.Commit)
			r.Post("/cancel", h.Cancel)
		})
	})
}

// ImportResponse is the body returned once a batch is in the ledger.
type ImportResponse struct {
	BatchID        string               `json:"batchId"`
	Filename       string               `json:"filename"`
	Imported       int                  `json:"imported"`
	Dropped        int                  `json:"dropped"`
	AmountFailures int                  `json:"amountFailures"`
	Undated        int                  `json:"undated"`
	Notice         importservice.Notice `json:"notice"`
}

// PendingResponse is the body returned while a batch waits for confirmation.
type PendingResponse struct {
	Import gate.View            `json:"import"`
	Notice importservice.Notice `json:"notice"`
}

// Upload accepts a statement as multipart field "file" or as the raw body with
// a filename query parameter. Clean files are imported straight away (201);
// anything ambiguous is held for confirmation (202).
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		h.logger.Warn("failed to read upload", slog.Any("error", err))
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.importSvc.Begin(r.Context(), filename, data)
	if err != nil {
		writeNotice(w, decodeStatus(err), importservice.NoticeFor(err))
		return
	}

	if g.State() == gate.StateReady {
		h.complete(w, r, g)
		return
	}

	if err := h.pending.Put(g); err != nil {
		_ = g.Cancel()
		h.logger.Warn("failed to hold import for confirmation",
			slog.String("batch_id", g.Batch().ID), slog.Any("error", err))
		httpx.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	httpx.JSON(w, http.StatusAccepted, PendingResponse{
		Import: g.View(),
		Notice: importservice.NoticeFor(importservice.ErrConfirmationRequired),
	})
}

func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file: %w", err)
		}
		return header.Filename, data, nil
	} else if !errors.Is(err, http.ErrNotMultipart) && !errors.Is(err, http.ErrMissingFile) {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		return "", nil, errors.New("filename is required")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read body: %w", err)
	}
	return filename, data, nil
}

// GetImport returns the confirmation view of a pending batch.
func (h *ImportHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, g.View())
}

// ApplyPreset replaces the working mapping with a bank preset.
func (h *ImportHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Preset string `json:"preset"`
	}
	if err := httpx.Decode(r.Body, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := g.ApplyPreset(req.Preset); err != nil {
		httpx.Error(w, gateStatus(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, g.View())
}

type mappingRequest struct {
	// Mapping replaces every role at once.
	Mapping *layout.ColumnMapping `json:"mapping,omitempty"`
	// Role and Column move a single role.
	Role   string `json:"role,omitempty"`
	Column *int   `json:"column,omitempty"`
}

// SetMapping edits the working mapping, either whole or one role at a time.
func (h *ImportHandler) SetMapping(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req mappingRequest
	if err := httpx.Decode(r.Body, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var err error
	switch {
	case req.Mapping != nil:
		err = g.SetMapping(*req.Mapping)
	case req.Role != "" && req.Column != nil:
		var role layout.Role
		role, err = layout.ParseRole(req.Role)
		if err != nil {
			err = fmt.Errorf("%w: %w", gate.ErrInvalidRole, err)
			break
		}
		err = g.SetRole(role, *req.Column)
	default:
		httpx.Error(w, http.StatusBadRequest, "either mapping or role and column are required")
		return
	}
	if err != nil {
		httpx.Error(w, gateStatus(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, g.View())
}

// Preview shows the first rows as the working mapping reads them.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	rows, err := g.Preview()
	if err != nil {
		httpx.Error(w, gateStatus(err), err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// Commit confirms the mapping and imports the batch. An incomplete mapping is
// answered with 422 and the batch stays pending.
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := g.Commit(); err != nil {
		var verr *gate.ValidationError
		if errors.As(err, &verr) {
			missing := make([]string, len(verr.Missing))
			for i, role := range verr.Missing {
				missing[i] = role.String()
			}
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   verr.Message,
				"missing": missing,
			})
			return
		}
		httpx.Error(w, gateStatus(err), err.Error())
		return
	}

	h.pending.Remove(g.Batch().ID)
	h.complete(w, r, g)
}

// Cancel abandons a pending batch. Nothing is imported.
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := g.Cancel(); err != nil {
		httpx.Error(w, gateStatus(err), err.Error())
		return
	}
	h.pending.Remove(g.Batch().ID)

	h.logger.Info("import cancelled", slog.String("batch_id", g.Batch().ID))
	httpx.JSON(w, http.StatusOK, map[string]any{"notice": importservice.NoticeFor(importservice.ErrCancelled)})
}

// ListPresets returns every registered bank layout.
func (h *ImportHandler) ListPresets(w http.ResponseWriter, _ *http.Request) {
	presets := h.importSvc.Registry().List()
	out := make([]gate.PresetOption, 0, len(presets))
	for _, p := range presets {
		out = append(out, gate.PresetOption{Key: p.Key, Name: p.Name, Label: p.Label})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ImportHandler) complete(w http.ResponseWriter, r *http.Request, g *gate.Gate) {
	start := time.Now()
	res, err := h.importSvc.Complete(r.Context(), g)
	if err != nil {
		h.logger.Error("failed to complete import",
			slog.String("batch_id", g.Batch().ID), slog.Any("error", err))
		writeNotice(w, http.StatusInternalServerError, importservice.NoticeFor(err))
		return
	}

	h.logger.Debug("import completed over http",
		slog.String("batch_id", res.BatchID),
		slog.Duration("took", time.Since(start)))
	httpx.JSON(w, http.StatusCreated, ImportResponse{
		BatchID:        res.BatchID,
		Filename:       res.Filename,
		Imported:       res.Imported,
		Dropped:        res.Dropped,
		AmountFailures: res.AmountFailures,
		Undated:        res.Undated,
		Notice:         res.Notice,
	})
}

func (h *ImportHandler) lookup(w http.ResponseWriter, r *http.Request) (*gate.Gate, bool) {
	id := chi.URLParam(r, "id")
	g, ok := h.pending.Get(id)
	if !ok {
		httpx.Error(w, http.StatusNotFound, "import not found or expired")
		return nil, false
	}
	return g, true
}

func writeNotice(w http.ResponseWriter, status int, n importservice.Notice) {
	httpx.JSON(w, status, httpx.ErrorBody{Error: n.Message, Severity: string(n.Severity)})
}

func decodeStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat), errors.Is(err, parser.ErrDecoderUnavailable):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, parser.ErrDecodeParseFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func gateStatus(err error) int {
	switch {
	case errors.Is(err, gate.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, gate.ErrUnknownPreset),
		errors.Is(err, gate.ErrColumnOutOfRange),
		errors.Is(err, gate.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, gate.ErrValidationRefused):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
