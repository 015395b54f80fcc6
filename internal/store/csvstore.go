package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RakanEX/finance-db-pyscript/internal/ledger"
	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// CSV keeps the fact table in a ledger CSV file. Every upsert rewrites the
// file through a temporary sibling and a rename.
type CSV struct {
	path string
}

// OpenCSV returns a store backed by the ledger file at path.
func OpenCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) EnsureSchema(ctx context.Context) error {
	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", c.path, err)
	}
	return c.write(nil)
}

func (c *CSV) Upsert(ctx context.Context, facts []model.Fact) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}
	existing, err := c.read()
	if err != nil {
		return 0, err
	}

	index := make(map[model.FactKey]int, len(existing))
	for i, f := range existing {
		index[f.Key()] = i
	}
	for _, f := range facts {
		if i, ok := index[f.Key()]; ok {
			existing[i].Description = f.Description
			existing[i].Type = f.Type
			existing[i].Scenario = f.Scenario
			existing[i].Timestamp = f.Timestamp
			continue
		}
		index[f.Key()] = len(existing)
		existing = append(existing, f)
	}

	if err := c.write(existing); err != nil {
		return 0, err
	}
	return int64(len(facts)), nil
}

func (c *CSV) Facts(ctx context.Context) ([]model.Fact, error) {
	facts, err := c.read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(facts, func(i, j int) bool {
		a, b := facts[i].Key(), facts[j].Key()
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.GLNumber != b.GLNumber {
			return a.GLNumber < b.GLNumber
		}
		return a.Value < b.Value
	})
	return facts, nil
}

func (c *CSV) Close() error { return nil }

func (c *CSV) read() ([]model.Fact, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", c.path, err)
	}
	defer f.Close()

	facts, err := ledger.ReadFacts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return facts, nil
}

func (c *CSV) write(facts []model.Fact) error {
	var buf bytes.Buffer
	if err := ledger.WriteFacts(&buf, facts); err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing %s: %w", c.path, err)
	}
	return nil
}
