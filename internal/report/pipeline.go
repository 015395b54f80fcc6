package report

import (
	"errors"
	"strings"
	"time"

	"github.com/RakanEX/finance-db-pyscript/internal/entities"
	"github.com/RakanEX/finance-db-pyscript/internal/grid"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// Options carries the per-run inputs of the pipeline.
type Options struct {
	Scenario string            // defaults to model.DefaultScenario
	Mapping  *entities.Mapping // nil means labels pass through unchanged
	Now      func() time.Time  // ingestion clock, defaults to time.Now
}

// Stats counts what happened to one file.
type Stats struct {
	Rows          int // body rows below the header
	Sections      int // section header rows
	Cells         int // non-blank value cells pivoted
	ExcludedLabel int // cells on rows without a GL number
	ExcludedZero  int // cells whose amount is zero
	Emitted       int
}

// Batch is the ordered output for one file.
type Batch struct {
	Source    string
	Variant   model.Variant
	Period    time.Time // monthly exports only
	Entity    string    // dump exports only
	Timestamp time.Time
	Facts     []model.Fact
	Stats     Stats
}

// ProcessFile reads path and normalizes it. File-scoped failures are
// returned as *MalformedInputError, *DateGrammarError or *AmountError.
func ProcessFile(path string, cfg VariantConfig, opts Options) (*Batch, error) {
	g, err := grid.ReadFile(path, 0)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Reason: "cannot read export", Err: err}
	}

	b, err := Normalize(g, cfg, opts)
	if err != nil {
		var mi *MalformedInputError
		if errors.As(err, &mi) && mi.Path == "" {
			mi.Path = path
		}
		return nil, err
	}
	b.Source = path
	return b, nil
}

// Normalize runs the pipeline over an already loaded grid: Detect, TagSections,
// Reshape, then field parsing with the non-ledger label and zero exclusions.
func Normalize(g *grid.Grid, cfg VariantConfig, opts Options) (*Batch, error) {
	layout, err := Detect(g, cfg, opts.Mapping)
	if err != nil {
		return nil, err
	}

	tags := TagSections(layout.Body)
	raw := Reshape(layout.Body, tags, layout.Columns)

	scenario := strings.TrimSpace(opts.Scenario)
	if scenario == "" {
		scenario = model.DefaultScenario
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	b := &Batch{
		Variant:   cfg.Variant,
		Period:    layout.Period,
		Entity:    layout.Entity,
		Timestamp: now().UTC().Truncate(time.Second),
	}
	b.Stats.Rows = len(layout.Body)
	b.Stats.Cells = len(raw)
	for _, row := range layout.Body {
		if IsSectionHeader(row) {
			b.Stats.Sections++
		}
	}

	for _, rf := range raw {
		gl, desc := ParseLabel(rf.Label)
		if gl == 0 {
			b.Stats.ExcludedLabel++
			continue
		}

		value, err := ParseAmount(rf.Raw)
		if err != nil {
			return nil, &AmountError{Literal: rf.Raw, Row: layout.BodyRow + rf.Row, Column: rf.Column.Header}
		}
		if value.IsZero() {
			b.Stats.ExcludedZero++
			continue
		}

		fact := model.Fact{
			GLNumber:    gl,
			Description: desc,
			Type:        rf.Type,
			Value:       value,
			Scenario:    scenario,
			Timestamp:   b.Timestamp,
		}
		switch cfg.Axis {
		case AxisEntity:
			fact.Entity = rf.Column.Entity
			fact.Date = layout.Period
		case AxisDate:
			fact.Entity = layout.Entity
			fact.Date = rf.Column.Date
		}
		b.Facts = append(b.Facts, fact)
	}
	b.Stats.Emitted = len(b.Facts)
	return b, nil
}
