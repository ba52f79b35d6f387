// Package wizard drives the connect, review and generate flow over a single
// schema snapshot. A Wizard is plain state: persisting it is the caller's job
// (see config.Store), and only the masked connection string is ever kept.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
)

// Step names a wizard stage.
type Step string

const (
	StepConnect  Step = "connect"
	StepReview   Step = "review"
	StepGenerate Step = "generate"
)

var (
	// ErrNotConnected is returned when a step needs a snapshot that has not
	// been captured yet.
	ErrNotConnected = errors.New("no schema has been analyzed yet")

	// ErrNothingSelected is returned when generation is requested with an
	// empty selection.
	ErrNothingSelected = errors.New("no tables selected")
)

// Analyzer captures a schema snapshot. *connector.Registry satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, driver, raw string) (*model.SchemaSnapshot, connector.Descriptor, error)
}

// Wizard is one run of the flow.
type Wizard struct {
	ID               string
	Step             Step
	Driver           string
	ConnectionString string
	Snapshot         *model.SchemaSnapshot
	Selected         []string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	now func() time.Time
}

// New starts a wizard at the connect step with a fresh random ID.
func New() *Wizard {
	w := &Wizard{ID: uuid.NewString(), Step: StepConnect, Selected: []string{}, now: time.Now}
	w.CreatedAt = w.now().UTC()
	w.UpdatedAt = w.CreatedAt
	return w
}

// FromSession restores a wizard from its persisted form.
func FromSession(s model.Session) *Wizard {
	selected := s.Selected
	if selected == nil {
		selected = []string{}
	}
	step := Step(s.Step)
	if step == "" {
		step = StepConnect
	}
	return &Wizard{
		ID:               s.ID,
		Step:             step,
		Driver:           s.Driver,
		ConnectionString: s.ConnectionString,
		Snapshot:         s.Snapshot,
		Selected:         selected,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		now:              time.Now,
	}
}

// Session returns the persisted form of w.
func (w *Wizard) Session() model.Session {
	return model.Session{
		ID:               w.ID,
		Step:             string(w.Step),
		Driver:           w.Driver,
		ConnectionString: w.ConnectionString,
		Snapshot:         w.Snapshot,
		Selected:         append([]string{}, w.Selected...),
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

// Connect analyzes raw with driver. On success the snapshot and the masked
// descriptor replace any previous ones, the selection is cleared and the
// wizard moves to review. On failure w is left untouched.
func (w *Wizard) Connect(ctx context.Context, a Analyzer, driver, raw string) error {
	snap, d, err := a.Analyze(ctx, driver, raw)
	if err != nil {
		return err
	}
	w.Driver = driver
	w.ConnectionString = d.Masked()
	w.Snapshot = snap
	w.Selected = []string{}
	w.Step = StepReview
	w.touch()
	return nil
}

// Select records the tables to generate. Every name must exist in the
// snapshot; duplicates collapse to their first occurrence.
func (w *Wizard) Select(names []string) error {
	if w.Snapshot == nil {
		return ErrNotConnected
	}
	if len(names) == 0 {
		return ErrNothingSelected
	}

	seen := make(map[string]bool, len(names))
	selected := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		if _, ok := w.Snapshot.Table(n); !ok {
			return &generator.LookupError{Table: n}
		}
		seen[n] = true
		selected = append(selected, n)
	}
	w.Selected = selected
	w.Step = StepGenerate
	w.touch()
	return nil
}

// Generate renders the current selection. It does not change w. Empty
// fields of opts default to the wizard's driver and masked connection string.
func (w *Wizard) Generate(opts generator.Options) (*generator.Bundle, error) {
	if w.Snapshot == nil {
		return nil, ErrNotConnected
	}
	if len(w.Selected) == 0 {
		return nil, ErrNothingSelected
	}
	if opts.Driver == "" {
		opts.Driver = w.Driver
	}
	if opts.ConnectionString == "" {
		opts.ConnectionString = w.ConnectionString
	}
	b, err := generator.Generate(w.Snapshot, w.Selected, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return b, nil
}

// Reset discards the snapshot and selection and returns to connect.
func (w *Wizard) Reset() {
	w.Driver = ""
	w.ConnectionString = ""
	w.Snapshot = nil
	w.Selected = []string{}
	w.Step = StepConnect
	w.touch()
}

func (w *Wizard) touch() {
	if w.now == nil {
		w.now = time.Now
	}
	w.UpdatedAt = w.now().UTC()
}
