// Package markdown renders cell source to HTML. A single Service is shared
// by every cell of a process; math spans are typeset once the service's
// engine reports ready.
package markdown

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/joeycumines/mdcell/internal/typeset"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Service converts Markdown to HTML.
type Service struct {
	md     goldmark.Markdown
	engine *typeset.Engine
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	engine     *typeset.Engine
	logger     *slog.Logger
	typeset    bool
	symbolFile string
}

// WithEngine uses e instead of building an engine from the other options.
func WithEngine(e *typeset.Engine) Option { return func(o *serviceOptions) { o.engine = e } }

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option { return func(o *serviceOptions) { o.logger = l } }

// WithTypesetting enables or disables math typesetting (enabled by default).
func WithTypesetting(enabled bool) Option { return func(o *serviceOptions) { o.typeset = enabled } }

// WithSymbolFile merges an extra TOML symbol table over the built-in one.
func WithSymbolFile(path string) Option { return func(o *serviceOptions) { o.symbolFile = path } }

// New returns a service whose engine has not started loading; call Start.
func New(opts ...Option) *Service {
	o := serviceOptions{typeset: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	engine := o.engine
	if engine == nil {
		engineOpts := []typeset.Option{
			typeset.WithLogger(o.logger),
			typeset.WithLoader(typeset.DefaultLoader(o.symbolFile)),
		}
		if !o.typeset {
			engineOpts = append(engineOpts, typeset.WithDisabled())
		}
		engine = typeset.New(engineOpts...)
	}

	return &Service{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				&mathExtension{engine: engine},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		engine: engine,
		logger: o.logger,
	}
}

// Start begins loading the typesetting engine in the background.
func (s *Service) Start(ctx context.Context) { s.engine.Load(ctx) }

// Ready is the typesetting engine's readiness signal.
func (s *Service) Ready() *typeset.Signal { return s.engine.Ready() }

// Render converts source to HTML, typesetting math if the engine is ready.
func (s *Service) Render(source string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(source), &buf); err != nil {
		s.logger.Error("markdown: render failed", "error", err)
	}
	return buf.String()
}

var (
	sharedMu sync.Mutex
	shared   *Service
)

// Init creates the process-wide service and starts its engine. Only the
// first call (or the first Shared call) configures the service; later calls
// return it unchanged.
func Init(ctx context.Context, opts ...Option) *Service {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(opts...)
		shared.Start(ctx)
	}
	return shared
}

// Shared returns the process-wide service, initialising it with defaults on
// first use.
func Shared() *Service {
	return Init(context.Background())
}
