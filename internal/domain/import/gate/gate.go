// Package gate holds an import batch until its column mapping is confirmed.
//
// A gate opens in Inferring and settles immediately: confident inference goes
// straight to Ready, anything else waits in AwaitingConfirmation for a person
// to pick a bank preset or assign columns by hand. Ready and Cancelled are
// terminal. Wait is the only blocking call.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/normalizer"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in current gate state")
	ErrUnknownPreset     = errors.New("unknown layout preset")
	ErrColumnOutOfRange  = errors.New("column index out of range")
	ErrInvalidRole       = errors.New("invalid column role")
	ErrValidationRefused = errors.New("column mapping incomplete")
)

// PreviewSize is how many data rows Preview renders.
const PreviewSize = 3

// State is the gate lifecycle position.
type State int

const (
	StateInferring State = iota
	StateAwaitingConfirmation
	StateReady
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInferring:
		return "inferring"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateReady:
		return "ready"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason explains why a gate is waiting for a person.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonAlwaysConfirm       Reason = "always_confirm"
	ReasonHeaderless          Reason = "headerless"
	ReasonDescriptionRejected Reason = "description_rejected"
	ReasonMissingRoles        Reason = "missing_roles"
)

// Policy tunes when a gate may skip confirmation.
type Policy struct {
	// AlwaysConfirm keeps every batch open for review, even when inference
	// resolved every role.
	AlwaysConfirm bool
}

// Batch is a decoded file waiting for a confirmed mapping.
type Batch struct {
	ID         string
	Filename   string
	Headers    []string
	Rows       [][]string // data rows only
	Headerless bool
	Mapping    layout.ColumnMapping

	DescriptionRejected bool
	SuggestedPreset     string
	PresetKey           string // preset currently applied, "" for inferred or manual
	Fingerprint         string

	// Remembered is a mapping confirmed for the same fingerprint before.
	Remembered *layout.ColumnMapping
}

// ValidationError is returned by Commit when required roles are unmapped. The
// gate stays open.
type ValidationError struct {
	Missing []layout.Role
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidationRefused }

// PreviewRow is one data row as the current mapping would read it.
type PreviewRow struct {
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	AmountFailed bool            `json:"amountFailed,omitempty"`
}

// Gate guards one batch. All methods are safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	state    State
	reason   Reason
	batch    Batch
	registry *preset.Registry
	done     chan struct{}
}

// Open settles a new gate for batch. The batch is owned by the gate afterwards.
func Open(batch Batch, registry *preset.Registry, policy Policy) *Gate {
	g := &Gate{
		state:    StateInferring,
		batch:    batch,
		registry: registry,
		done:     make(chan struct{}),
	}

	g.reason = awaitReason(batch, policy)
	if g.reason == ReasonNone {
		g.settle(StateReady)
		return g
	}

	g.state = StateAwaitingConfirmation
	g.prefill()
	return g
}

func awaitReason(b Batch, p Policy) Reason {
	switch {
	case p.AlwaysConfirm:
		return ReasonAlwaysConfirm
	case b.Headerless:
		return ReasonHeaderless
	case b.DescriptionRejected:
		return ReasonDescriptionRejected
	case !b.Mapping.Complete():
		return ReasonMissingRoles
	default:
		return ReasonNone
	}
}

// prefill seeds the working mapping of an awaiting gate, preferring the
// mapping confirmed for this layout last time over a detected bank preset.
func (g *Gate) prefill() {
	if r := g.batch.Remembered; r != nil && g.fits(*r) {
		g.batch.Mapping = *r
		return
	}
	if g.batch.SuggestedPreset == "" || g.registry == nil {
		return
	}
	if p, ok := g.registry.Get(g.batch.SuggestedPreset); ok {
		g.batch.Mapping = p.Apply(g.batch.Headers)
		g.batch.PresetKey = p.Key
	}
}

func (g *Gate) fits(m layout.ColumnMapping) bool {
	for _, r := range layout.Roles {
		if m.Index(r) >= len(g.batch.Headers) {
			return false
		}
	}
	return true
}

// settle moves to a terminal state. Callers hold mu.
func (g *Gate) settle(s State) {
	g.state = s
	if s == StateCancelled {
		g.batch.Rows = nil
	}
	close(g.done)
}

func (g *Gate) requireAwaiting() error {
	if g.state != StateAwaitingConfirmation {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, g.state)
	}
	return nil
}

// ApplyPreset overwrites the working mapping with a preset's roles.
func (g *Gate) ApplyPreset(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAwaiting(); err != nil {
		return err
	}
	if g.registry == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, key)
	}
	p, ok := g.registry.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, key)
	}

	g.batch.Mapping = p.Apply(g.batch.Headers)
	g.batch.PresetKey = p.Key
	return nil
}

// SetRole points role at col. layout.Unset marks the role as not used.
func (g *Gate) SetRole(role layout.Role, col int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAwaiting(); err != nil {
		return err
	}
	if role == layout.RoleUnused {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if col != layout.Unset && (col < 0 || col >= len(g.batch.Headers)) {
		return fmt.Errorf("%w: %d of %d columns", ErrColumnOutOfRange, col, len(g.batch.Headers))
	}

	g.batch.Mapping.Set(role, col)
	return nil
}

// SetMapping replaces the whole working mapping.
func (g *Gate) SetMapping(m layout.ColumnMapping) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAwaiting(); err != nil {
		return err
	}
	for _, r := range layout.Roles {
		if idx := m.Index(r); idx < layout.Unset || idx >= len(g.batch.Headers) {
			return fmt.Errorf("%w: %s=%d", ErrColumnOutOfRange, r, idx)
		}
	}

	g.batch.Mapping = m
	return nil
}

// Preview reads the first data rows with the working mapping.
func (g *Gate) Preview() ([]PreviewRow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateAwaitingConfirmation && g.state != StateReady {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, g.state)
	}

	m := g.batch.Mapping
	n := min(PreviewSize, len(g.batch.Rows))
	out := make([]PreviewRow, 0, n)
	for _, row := range g.batch.Rows[:n] {
		var amt normalizer.Amount
		if m.Amount >= 0 {
			amt = normalizer.ParseAmount(layout.Cell(row, m.Amount))
		} else {
			amt = normalizer.Reconcile(
				normalizer.ParseAmount(layout.Cell(row, m.Debit)),
				normalizer.ParseAmount(layout.Cell(row, m.Credit)),
			)
		}
		out = append(out, PreviewRow{
			Date:         layout.Cell(row, m.Date),
			Description:  layout.Cell(row, m.Description),
			Amount:       amt.Value,
			AmountFailed: amt.Failed,
		})
	}
	return out, nil
}

// Commit confirms the working mapping. An incomplete mapping is refused with
// a *ValidationError and the gate stays open.
func (g *Gate) Commit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAwaiting(); err != nil {
		return err
	}
	if missing := g.batch.Mapping.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing, Message: promptFor(missing[0])}
	}

	g.settle(StateReady)
	return nil
}

// Cancel abandons the batch and drops its rows.
func (g *Gate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireAwaiting(); err != nil {
		return err
	}
	g.settle(StateCancelled)
	return nil
}

// Wait blocks until the gate is Ready or Cancelled. There is no timeout; a
// done ctx cancels an open gate and returns the context error.
func (g *Gate) Wait(ctx context.Context) (State, error) {
	select {
	case <-g.done:
		return g.State(), nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case StateReady:
		return StateReady, nil
	case StateAwaitingConfirmation:
		g.settle(StateCancelled)
	}
	return g.state, ctx.Err()
}

// Done is closed once the gate reaches a terminal state.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Reason returns why the gate waited for confirmation, ReasonNone when it did not.
func (g *Gate) Reason() Reason {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reason
}

// Batch returns a snapshot of the batch. Rows share backing arrays with the
// gate and must not be modified.
func (g *Gate) Batch() Batch {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := g.batch
	b.Headers = append([]string(nil), g.batch.Headers...)
	b.Rows = append([][]string(nil), g.batch.Rows...)
	return b
}

// Result returns the confirmed mapping and rows. Only valid in Ready.
func (g *Gate) Result() (layout.ColumnMapping, [][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateReady {
		return layout.ColumnMapping{}, nil, fmt.Errorf("%w: %s", ErrInvalidTransition, g.state)
	}
	return g.batch.Mapping, g.batch.Rows, nil
}

func promptFor(role layout.Role) string {
	switch role {
	case layout.RoleDescription:
		return "Please select the Description column."
	case layout.RoleDate:
		return "Please select the Date column."
	default:
		return "Please select at least an Amount column."
	}
}
