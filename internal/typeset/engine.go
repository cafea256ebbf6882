// Package typeset turns TeX-style math into Unicode text. The symbol table
// loads asynchronously; until it has, the engine reports itself not ready and
// callers show math unformatted.
package typeset

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
)

//go:embed symbols.toml
var builtinSymbols string

// ErrDisabled settles the readiness signal of an engine built with
// WithDisabled.
var ErrDisabled = errors.New("typeset: disabled")

// Table maps TeX names and characters to their Unicode renditions.
type Table struct {
	Symbols      map[string]string `toml:"symbols"`
	Superscripts map[string]string `toml:"superscripts"`
	Subscripts   map[string]string `toml:"subscripts"`
	Accents      map[string]string `toml:"accents"`
}

// Merge copies every entry of o over t.
func (t *Table) Merge(o *Table) {
	if o == nil {
		return
	}
	t.Symbols = mergeInto(t.Symbols, o.Symbols)
	t.Superscripts = mergeInto(t.Superscripts, o.Superscripts)
	t.Subscripts = mergeInto(t.Subscripts, o.Subscripts)
	t.Accents = mergeInto(t.Accents, o.Accents)
}

func mergeInto(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// ParseTable decodes a TOML symbol table.
func ParseTable(data string) (*Table, error) {
	var t Table
	md, err := toml.Decode(data, &t)
	if err != nil {
		return nil, fmt.Errorf("typeset: decode symbol table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("typeset: unknown symbol table keys: %v", undecoded)
	}
	return &t, nil
}

// Loader produces the symbol table. It runs on its own goroutine.
type Loader func(ctx context.Context) (*Table, error)

// DefaultLoader loads the built-in table and, when extraPath is set, merges
// the TOML file at extraPath over it.
func DefaultLoader(extraPath string) Loader {
	return func(ctx context.Context) (*Table, error) {
		t, err := ParseTable(builtinSymbols)
		if err != nil {
			return nil, err
		}
		if extraPath == "" {
			return t, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(extraPath)
		if err != nil {
			return nil, fmt.Errorf("typeset: read symbol table: %w", err)
		}
		extra, err := ParseTable(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", extraPath, err)
		}
		t.Merge(extra)
		return t, nil
	}
}

// Engine is the math typesetter.
type Engine struct {
	ready    *Signal
	table    atomic.Pointer[Table]
	loader   Loader
	disabled bool
	logger   *slog.Logger
	once     sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithLoader replaces DefaultLoader("").
func WithLoader(l Loader) Option { return func(e *Engine) { e.loader = l } }

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithDisabled makes Load settle immediately with ErrDisabled; math is never
// typeset.
func WithDisabled() Option { return func(e *Engine) { e.disabled = true } }

// New returns an engine that has not started loading.
func New(opts ...Option) *Engine {
	e := &Engine{
		ready:  NewSignal(),
		loader: DefaultLoader(""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ready is settled once loading has finished, successfully or not.
func (e *Engine) Ready() *Signal { return e.ready }

// Load starts loading the symbol table in the background. Only the first
// call does anything.
func (e *Engine) Load(ctx context.Context) {
	e.once.Do(func() {
		if e.disabled {
			e.ready.Settle(ErrDisabled)
			return
		}
		go func() {
			t, err := e.loader(ctx)
			if err != nil {
				e.logger.Warn("typeset: symbol table unavailable, math stays unformatted", "error", err)
				e.ready.Settle(err)
				return
			}
			e.table.Store(t)
			e.logger.Debug("typeset: symbol table loaded", "symbols", len(t.Symbols))
			e.ready.Settle(nil)
		}()
	})
}

// Typeset converts tex to Unicode. ok is false until a table has loaded.
func (e *Engine) Typeset(tex string) (out string, ok bool) {
	t := e.table.Load()
	if t == nil {
		return "", false
	}
	return Convert(t, tex), true
}
