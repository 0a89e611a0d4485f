// internal/engine/engine.go
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
	"github.com/xkilldash9x/boxlayout/internal/browser/layout"
	"github.com/xkilldash9x/boxlayout/internal/browser/paint"
	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
	"github.com/xkilldash9x/boxlayout/internal/config"
	"github.com/xkilldash9x/boxlayout/internal/resources"
)

// Input is one document to lay out.
type Input struct {
	// Name identifies the document in logs and results, usually its path.
	Name   string
	Source []byte
	Format dom.Format
	// CSS holds author stylesheets, applied after the sheets the document
	// embeds itself.
	CSS []string
	// Viewport overrides the configured viewport when its width is set.
	Viewport style.Viewport
}

// Engine runs documents through the cascade, box tree, layout and paint
// order. Everything it owns is either read-only or guarded, so one engine
// serves concurrent runs.
type Engine struct {
	cfg      config.Interface
	logger   *zap.Logger
	registry *properties.Registry
	uaSheets []*parser.StyleSheet
	fonts    *fonts.GoFonts
	metrics  fonts.Metrics
	cache    *resources.FileCache
}

// New creates an engine from cfg. It fails when the embedded fonts cannot
// be parsed or a configured user agent stylesheet cannot be read.
func New(cfg config.Interface, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gf, err := fonts.NewGoFonts()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger.Named("engine"),
		registry: properties.NewRegistry(),
		fonts:    gf,
		metrics:  gf,
		cache:    resources.NewFileCache(cfg.Layout().ResourceRoot, logger),
	}
	if cfg.Layout().FontMetrics == "fixed" {
		e.metrics = fonts.Fixed{}
	}

	ua, err := e.userAgentSheets()
	if err != nil {
		return nil, err
	}
	e.uaSheets = ua
	return e, nil
}

func (e *Engine) userAgentSheets() ([]*parser.StyleSheet, error) {
	var sheets []*parser.StyleSheet
	if path := e.cfg.Layout().UserAgentStylesheet; path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("resolving user agent stylesheet %q: %w", path, err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to read user agent stylesheet: %w", err)
		}
		sheets = append(sheets, parser.NewParser(string(data)).Parse())
	} else {
		sheets = append(sheets, style.UserAgentSheet())
	}
	if family := e.cfg.Layout().FontFamily; family != "" {
		sheets = append(sheets, parser.NewParser("html { font-family: "+family+" }").Parse())
	}
	for _, s := range sheets {
		if err := s.Err(); err != nil {
			e.logger.Warn("User agent stylesheet has invalid rules.", zap.Int("count", len(multierr.Errors(err))))
		}
	}
	return sheets, nil
}

// Resources returns the cache images and linked stylesheets load from.
func (e *Engine) Resources() *resources.FileCache { return e.cache }

// Fonts returns the font set text is measured and drawn with.
func (e *Engine) Fonts() *fonts.GoFonts { return e.fonts }

func (e *Engine) viewport(in Input) style.Viewport {
	if in.Viewport.Width > 0 {
		return in.Viewport
	}
	vp := e.cfg.Viewport()
	return style.Viewport{
		Width:           vp.Width,
		Height:          vp.Height,
		DefaultFontSize: vp.DefaultFontSize,
		DPI:             vp.DPI,
	}
}

// Render lays out one document. The returned result carries the recoverable
// stylesheet problems in Diagnostics; err is reserved for documents that
// cannot be laid out at all and for cancellation.
func (e *Engine) Render(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID), zap.String("document", in.Name))

	if timeout := e.cfg.Engine().Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.render(ctx, in, runID, logger)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("Run timed out.", zap.Error(err))
		case errors.Is(err, context.Canceled):
			logger.Warn("Run was cancelled.", zap.Error(err))
		default:
			logger.Error("Run failed.", zap.Error(err))
		}
		return nil, err
	}
	logger.Info("Run complete.",
		zap.Int("boxes", res.Boxes.Len()),
		zap.Int("paint_items", len(res.Items)),
		zap.Int("diagnostics", len(multierr.Errors(res.Diagnostics))),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (e *Engine) render(ctx context.Context, in Input, runID string, logger *zap.Logger) (*Result, error) {
	tree, err := parseDocument(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := style.NewDocument(tree, logger)
	for _, s := range e.uaSheets {
		doc.AddSheet(s, style.OriginUserAgent)
	}
	for _, css := range e.embeddedSheets(tree, logger) {
		_ = doc.AddCSS(css, style.OriginAuthor)
	}
	for _, css := range in.CSS {
		// Problems are collected by the document as diagnostics.
		_ = doc.AddCSS(css, style.OriginAuthor)
	}

	vp := e.viewport(in)
	resolver := style.NewResolver(e.registry, doc, vp, logger)
	styles := resolver.ResolveTree()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := boxtree.Build(tree, styles, boxtree.Options{
		Images: e.cache,
		Pseudo: resolver.ResolvePseudo,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building box tree for %s: %w", in.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout.NewEngine(vp, e.metrics, logger).Layout(boxes)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		RunID:       runID,
		Name:        in.Name,
		Viewport:    vp,
		DOM:         tree,
		Boxes:       boxes,
		Items:       paint.Order(boxes),
		Diagnostics: multierr.Combine(doc.Err(), resolver.Err()),
	}, nil
}

func parseDocument(in Input) (*dom.Tree, error) {
	var (
		tree *dom.Tree
		err  error
	)
	switch in.Format {
	case dom.FormatHTML:
		tree, err = dom.ParseHTML(bytes.NewReader(in.Source))
	case dom.FormatXML:
		tree, err = dom.ParseXML(bytes.NewReader(in.Source))
	default:
		return nil, fmt.Errorf("%w: document format %d", ErrUnsupportedFormat, in.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", in.Name, err)
	}
	return tree, nil
}

// embeddedSheets collects, in document order, the text of HTML <style>
// elements and the stylesheets <link rel="stylesheet"> points at through
// the resource cache. Links that cannot be loaded are skipped.
func (e *Engine) embeddedSheets(tree *dom.Tree, logger *zap.Logger) []string {
	if tree.Format() != dom.FormatHTML {
		return nil
	}
	var sheets []string
	var walk func(id dom.NodeID)
	walk = func(id dom.NodeID) {
		n := tree.Node(id)
		if n == nil || n.Kind == dom.KindText {
			return
		}
		switch n.Tag {
		case "style":
			if typ, ok := tree.Attr(id, "type"); !ok || typ == "" || strings.EqualFold(typ, "text/css") {
				sheets = append(sheets, tree.TextContent(id))
			}
			return
		case "link":
			rel, _ := tree.Attr(id, "rel")
			href, _ := tree.Attr(id, "href")
			if !hasToken(rel, "stylesheet") || href == "" {
				return
			}
			data, err := e.cache.Bytes(href)
			if err != nil {
				logger.Warn("Skipping linked stylesheet.", zap.String("href", href), zap.Error(err))
				return
			}
			sheets = append(sheets, string(data))
			return
		}
		for _, c := range tree.Children(id) {
			walk(c)
		}
	}
	walk(tree.Root())
	return sheets
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

// RenderAll lays out independent documents concurrently, at most
// engine.concurrency at a time. Results come back in input order. The first
// failure cancels the runs still pending and is returned.
func (e *Engine) RenderAll(ctx context.Context, inputs []Input) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Engine().Concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := e.Render(gctx, in)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", in.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
