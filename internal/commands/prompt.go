package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
)

// errNoInput is returned when the terminal closes before the gate settles.
var errNoInput = errors.New("input closed before the import was confirmed")

const promptHelp = `Commands:
  bank <name>       use a bank layout (see the list above)
  <role> <column>   assign a column number, or "-" to clear (roles: date, description, amount, debit, credit)
  preview           show how the first rows will be read
  ok                import with this mapping
  cancel            abandon the import
`

// promptResolver settles a gate on a terminal.
type promptResolver struct {
	in       *bufio.Scanner
	out      io.Writer
	registry *preset.Registry
	bank     string // preset to apply before asking
	yes      bool   // commit without asking when the mapping is complete
}

func newPromptResolver(in io.Reader, out io.Writer, registry *preset.Registry, bank string, yes bool) *promptResolver {
	return &promptResolver{
		in:       bufio.NewScanner(in),
		out:      out,
		registry: registry,
		bank:     bank,
		yes:      yes,
	}
}

func (p *promptResolver) Resolve(ctx context.Context, g *gate.Gate) error {
	if p.bank != "" {
		bank, err := resolvePreset(p.registry, p.bank)
		if err != nil {
			return err
		}
		if err := g.ApplyPreset(bank.Key); err != nil {
			return err
		}
		if p.yes && g.Commit() == nil {
			return nil
		}
	}

	p.render(g.View())
	fmt.Fprint(p.out, promptHelp)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return err
			}
			return errNoInput
		}

		done, err := p.handle(g, strings.Fields(p.in.Text()))
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		if done {
			return nil
		}
	}
}

func (p *promptResolver) handle(g *gate.Gate, fields []string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "ok", "y", "yes", "commit":
		if err := g.Commit(); err != nil {
			var verr *gate.ValidationError
			if errors.As(err, &verr) {
				return false, errors.New(verr.Message)
			}
			return false, err
		}
		return true, nil

	case "cancel", "q", "quit":
		return true, g.Cancel()

	case "preview", "p":
		rows, err := g.Preview()
		if err != nil {
			return false, err
		}
		tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT")
		for _, r := range rows {
			amount := r.Amount.StringFixed(2)
			if r.AmountFailed {
				amount += " (unreadable)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date, r.Description, amount)
		}
		return false, tw.Flush()

	case "bank", "b":
		if len(fields) < 2 {
			return false, errors.New("usage: bank <name>")
		}
		bank, err := resolvePreset(p.registry, strings.Join(fields[1:], " "))
		if err != nil {
			return false, err
		}
		if err := g.ApplyPreset(bank.Key); err != nil {
			return false, err
		}
		fmt.Fprintf(p.out, "Using %s layout.\n", bank.Name)
		p.renderMapping(g.View())
		return false, nil

	case "help", "?":
		fmt.Fprint(p.out, promptHelp)
		return false, nil

	default:
		role, err := layout.ParseRole(cmd)
		if err != nil || role == layout.RoleUnused || len(fields) != 2 {
			return false, fmt.Errorf("unknown command %q, type help", strings.Join(fields, " "))
		}
		col := layout.Unset
		if fields[1] != "-" {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return false, fmt.Errorf("column must be a number, got %q", fields[1])
			}
			col = n - 1
		}
		if err := g.SetRole(role, col); err != nil {
			return false, err
		}
		p.renderMapping(g.View())
		return false, nil
	}
}

func (p *promptResolver) render(v gate.View) {
	fmt.Fprintf(p.out, "\n%s: %s\n\n", v.Filename, reasonText(v.Reason))

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for i, h := range v.Headers {
		samples := make([]string, 0, 2)
		for _, row := range v.Samples[:min(2, len(v.Samples))] {
			samples = append(samples, layout.Cell(row, i))
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", i+1, h, strings.Join(samples, " | "))
	}
	_ = tw.Flush()

	if len(v.Presets) > 0 {
		names := make([]string, len(v.Presets))
		for i, o := range v.Presets {
			names[i] = fmt.Sprintf("%s (%s)", o.Name, o.Key)
		}
		fmt.Fprintf(p.out, "\nBanks: %s\n", strings.Join(names, ", "))
	}
	p.renderMapping(v)
}

func (p *promptResolver) renderMapping(v gate.View) {
	parts := make([]string, 0, len(layout.Roles))
	for _, r := range layout.Roles {
		col := v.Mapping.Index(r)
		if col == layout.Unset {
			parts = append(parts, r.String()+"=-")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", r, col+1))
	}
	if v.PresetKey != "" {
		fmt.Fprintf(p.out, "Mapping (%s): %s\n", v.PresetKey, strings.Join(parts, " "))
		return
	}
	fmt.Fprintf(p.out, "Mapping: %s\n", strings.Join(parts, " "))
}

func reasonText(r gate.Reason) string {
	switch r {
	case gate.ReasonHeaderless:
		return "this file has no header row. Pick your bank or assign the columns."
	case gate.ReasonDescriptionRejected:
		return "the Description column only holds DEBIT/CREDIT flags. Pick the column with the merchant."
	case gate.ReasonMissingRoles:
		return "some columns could not be identified."
	default:
		return "review the column mapping before importing."
	}
}

// resolvePreset finds a bank layout by key or loosely typed name.
func resolvePreset(registry *preset.Registry, query string) (preset.Preset, error) {
	if found := registry.Find(query); len(found) > 0 {
		return found[0], nil
	}
	return preset.Preset{}, fmt.Errorf("%w: %s", gate.ErrUnknownPreset, query)
}
