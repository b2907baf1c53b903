// Package sequence issues human-facing identifiers (deal numbers, stock numbers)
// from per-tenant counters. Values are gapless and unique per (tenant, series)
// because every increment happens inside the caller's transaction: concurrent
// callers queue on the counter row and a rolled-back transaction returns its value.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"autolytiq-desk/internal/repository"
	"autolytiq-desk/internal/txmanager"

	"go.uber.org/zap"
)

// Built-in series
const (
	SeriesDeal  = "deal"
	SeriesStock = "stock"
)

// ErrNoTransaction NextValue was called without a live transaction
var ErrNoTransaction = errors.New("sequence: a transaction context is required")

// Code is an issued value and its display form
type Code struct {
	Value   int64
	Display string
}

type format struct {
	prefix string
	width  int
}

// Generator is safe for concurrent use
type Generator struct {
	mu      sync.RWMutex
	formats map[string]format
	logger  *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		formats: map[string]format{
			SeriesDeal:  {prefix: "D-", width: 6},
			SeriesStock: {prefix: "STK", width: 5},
		},
		logger: logger,
	}
}

// Register adds or replaces a display format: prefix followed by the value zero-padded to width
func (g *Generator) Register(series, prefix string, width int) error {
	if series == "" {
		return fmt.Errorf("sequence: series name is required")
	}
	if width < 1 || width > 18 {
		return fmt.Errorf("sequence: width %d out of range [1,18]", width)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.formats[series] = format{prefix: prefix, width: width}
	return nil
}

// Format renders v for series, e.g. ("deal", 123) -> "D-000123".
// Values wider than the series width are printed in full.
func (g *Generator) Format(series string, v int64) (string, error) {
	g.mu.RLock()
	f, ok := g.formats[series]
	g.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("sequence: unknown series %q", series)
	}
	return fmt.Sprintf("%s%0*d", f.prefix, f.width, v), nil
}

// NextValue increments the (tenant, series) counter inside tc and returns the new value.
// The first call for a pair returns 1.
func (g *Generator) NextValue(ctx context.Context, tc *txmanager.TxContext, tenantID, series string) (int64, error) {
	if tc == nil {
		return 0, ErrNoTransaction
	}
	if tenantID == "" || series == "" {
		return 0, fmt.Errorf("sequence: tenant and series are required")
	}
	v, err := repository.NewPostgresSequencesRepo(tc).Increment(ctx, tenantID, series)
	if err != nil {
		return 0, err
	}
	g.logger.Debug("sequence value issued",
		zap.String("tenant_id", tenantID),
		zap.String("series", series),
		zap.Int64("value", v),
		zap.Int("attempt", tc.Attempt()),
	)
	return v, nil
}

// Next issues a value and formats it. The series must be registered.
func (g *Generator) Next(ctx context.Context, tc *txmanager.TxContext, tenantID, series string) (Code, error) {
	g.mu.RLock()
	_, known := g.formats[series]
	g.mu.RUnlock()
	if !known {
		return Code{}, fmt.Errorf("sequence: unknown series %q", series)
	}

	v, err := g.NextValue(ctx, tc, tenantID, series)
	if err != nil {
		return Code{}, err
	}
	display, err := g.Format(series, v)
	if err != nil {
		return Code{}, err
	}
	return Code{Value: v, Display: display}, nil
}
