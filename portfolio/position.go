// Package portfolio tracks open positions, realized and unrealized P&L,
// and the immutable trade history.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

var (
	// ErrPositionExists is returned when opening a symbol that is already open.
	// Overwriting would corrupt P&L accounting.
	ErrPositionExists = errors.New("position already open")

	// ErrNoPosition is returned when closing a symbol with nothing open.
	ErrNoPosition = errors.New("no open position")
)

// Position is one open holding. A symbol has at most one open position.
type Position struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	EntryTime  time.Time `json:"entry_time"`
}

// Book is the single owned registry of open positions. Both the risk
// manager and the ledger share one Book, so their views can never diverge.
type Book struct {
	mu        sync.RWMutex
	positions map[string]Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]Position)}
}

// Open records a new position. It fails if the symbol is already open.
func (b *Book) Open(p Position) error {
	if p.EntryPrice <= 0 {
		return fmt.Errorf("open %s: entry price must be positive, got %v", p.Symbol, p.EntryPrice)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("open %s: quantity must be positive, got %v", p.Symbol, p.Quantity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.positions[p.Symbol]; ok {
		return fmt.Errorf("open %s: %w", p.Symbol, ErrPositionExists)
	}
	b.positions[p.Symbol] = p
	return nil
}

// Close removes and returns the open position for symbol.
func (b *Book) Close(symbol string) (Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return Position{}, fmt.Errorf("close %s: %w", symbol, ErrNoPosition)
	}
	delete(b.positions, symbol)
	return p, nil
}

// Get returns the open position for symbol, if any.
func (b *Book) Get(symbol string) (Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.positions[symbol]
	return p, ok
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

// Symbols returns the open symbols in sorted order.
func (b *Book) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.positions))
	for s := range b.positions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies the open positions, keyed by symbol.
func (b *Book) Snapshot() map[string]Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Position, len(b.positions))
	for s, p := range b.positions {
		out[s] = p
	}
	return out
}

// Restore replaces the book contents, used when reloading persisted state.
func (b *Book) Restore(positions map[string]Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions = make(map[string]Position, len(positions))
	for s, p := range positions {
		b.positions[s] = p
	}
}
