// File: cmd/layout.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/config"
	"github.com/xkilldash9x/boxlayout/internal/engine"
	"github.com/xkilldash9x/boxlayout/internal/observability"
)

type layoutOptions struct {
	css      []string
	width    float64
	height   float64
	format   string
	output   string
	selector string
}

// newLayoutCmd creates and configures the `layout` command.
func newLayoutCmd() *cobra.Command {
	opts := &layoutOptions{}
	cmd := &cobra.Command{
		Use:   "layout [documents...]",
		Short: "Lays out documents and writes their geometry",
		Long: `Lays out each document against the configured viewport. Files ending in
.xml, .xhtml or .svg parse as XML, everything else as HTML; "-" reads HTML
from stdin. With several documents, --output names a directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return runLayout(cmd, cfg, opts, args)
		},
	}

	cmd.Flags().StringArrayVar(&opts.css, "css", nil, "author stylesheet file, repeatable")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width in px (overrides viewport.width)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height in px (overrides viewport.height)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json, tree or png (overrides render.format)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory for several documents (default stdout)")
	cmd.Flags().StringVar(&opts.selector, "select", "", "print only the boxes of the elements this XPath selects")
	return cmd
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg config.Interface, opts *layoutOptions) {
	if cmd.Flags().Changed("width") {
		cfg.SetViewportWidth(opts.width)
	}
	if cmd.Flags().Changed("height") {
		cfg.SetViewportHeight(opts.height)
	}
	if cmd.Flags().Changed("format") {
		cfg.SetRenderFormat(opts.format)
	}
}

func formatOf(name string) dom.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".xhtml", ".svg":
		return dom.FormatXML
	}
	return dom.FormatHTML
}

func readInputs(cmd *cobra.Command, opts *layoutOptions, args []string) ([]engine.Input, error) {
	var css []string
	for _, path := range opts.css {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read stylesheet: %w", err)
		}
		css = append(css, string(data))
	}

	inputs := make([]engine.Input, 0, len(args))
	for _, name := range args {
		var (
			data []byte
			err  error
		)
		if name == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		inputs = append(inputs, engine.Input{Name: name, Source: data, Format: formatOf(name), CSS: css})
	}
	return inputs, nil
}

func runLayout(cmd *cobra.Command, cfg *config.Config, opts *layoutOptions, args []string) error {
	logger := observability.GetLogger()
	inputs, err := readInputs(cmd, opts, args)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	results, err := eng.RenderAll(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	for _, res := range results {
		for _, d := range multierr.Errors(res.Diagnostics) {
			logger.Debug("Stylesheet diagnostic", zap.String("document", res.Name), zap.Error(d))
		}
	}

	if opts.selector != "" {
		return writeSelection(cmd.OutOrStdout(), results, opts.selector)
	}

	format := cfg.Render().Format
	if opts.output == "" || opts.output == "-" {
		var errs error
		for _, res := range results {
			errs = multierr.Append(errs, eng.Write(cmd.OutOrStdout(), res, format))
		}
		return errs
	}
	if len(results) == 1 {
		return writeFile(eng, opts.output, results[0], format)
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var errs error
	for _, res := range results {
		errs = multierr.Append(errs, writeFile(eng, outputPath(opts.output, res.Name, format), res, format))
	}
	return errs
}

// outputPath names the output of document name inside dir.
func outputPath(dir, name, format string) string {
	base := filepath.Base(name)
	if name == "-" {
		base = "stdin"
	}
	ext := "." + format
	if format == "tree" {
		ext = ".txt"
	}
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

func writeFile(eng *engine.Engine, path string, res *engine.Result, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return eng.Write(f, res, format)
}

// writeSelection prints one line per selected box: document, element path
// and border box.
func writeSelection(w io.Writer, results []*engine.Result, expr string) error {
	for _, res := range results {
		ids, err := res.Find(expr)
		if err != nil {
			return err
		}
		for _, id := range ids {
			b := res.Boxes.Box(id)
			bb := b.Layout.BorderBox()
			path := res.DOM.UniquePath(b.Node)
			if b.Kind == boxtree.KindText {
				path = "text()"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\n", res.Name, path, bb.X, bb.Y, bb.Width, bb.Height); err != nil {
				return err
			}
		}
	}
	return nil
}
