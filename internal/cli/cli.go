// Package cli implements the s1meta command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/s1meta/internal/metadata"
	"github.com/robert-malhotra/s1meta/internal/product"
)

// CLI holds shared state for all commands.
type CLI struct {
	out      io.Writer
	level    *slog.LevelVar
	logger   *slog.Logger
	provider metadata.Provider

	// bundle is the --bundle flag of the root command.
	bundle string
}

// Option configures a CLI.
type Option func(*CLI)

// WithProvider reads every product from p instead of its bundle.
func WithProvider(p metadata.Provider) Option {
	return func(c *CLI) {
		c.provider = p
	}
}

// New creates a CLI writing results to out and logs to logOut.
func New(out, logOut io.Writer, opts ...Option) *CLI {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	c := &CLI{
		out:    out,
		level:  level,
		logger: slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "s1meta",
		Short:         "Inspect the geometry of Sentinel-1 SAFE products",
		Long:          `s1meta reads the geolocation grid, bursts and footprints of Sentinel-1 SAFE products and converts between image and geographic coordinates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.bundle, "bundle", "", "metadata bundle path (default: <SAFE>/"+metadata.BundleName+")")

	root.AddCommand(c.infoCommand())
	root.AddCommand(c.footprintCommand())
	root.AddCommand(c.coordsToLLCommand())
	root.AddCommand(c.llToCoordsCommand())
	root.AddCommand(c.headingCommand())
	root.AddCommand(c.burstsCommand())
	root.AddCommand(c.maskCommand())

	return root
}

// open opens a product by SAFE path or dataset name.
func (c *CLI) open(name string) (*product.Meta, error) {
	opts := []product.Option{product.WithLogger(c.logger)}
	switch {
	case c.provider != nil:
		opts = append(opts, product.WithProvider(c.provider))
	case c.bundle != "":
		b, err := metadata.LoadBundle(c.bundle)
		if err != nil {
			return nil, err
		}
		opts = append(opts, product.WithProvider(b))
	}
	m, err := product.Open(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	c.logger.Debug("product opened", "name", m.Name(), "multidataset", m.IsMultidataset())
	return m, nil
}

// printJSON writes v as indented JSON.
func (c *CLI) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
