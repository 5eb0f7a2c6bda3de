package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/s1meta/internal/mask"
	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// maskCommand creates the "mask" command.
func (c *CLI) maskCommand() *cobra.Command {
	var files map[string]string
	var format string

	cmd := &cobra.Command{
		Use:   "mask <product> [name]",
		Short: "List masks or print one clipped to the footprint",
		Long: `Without a name, list the defined masks. With a name, print the mask geometry clipped to the product footprint.
--define adds product masks from vector files, e.g. --define lakes=/masks/lakes.geojson.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			for name, path := range files {
				if err := m.SetMask(name, mask.FromPath(path)); err != nil {
					return err
				}
			}

			if len(args) == 1 {
				for _, name := range m.MaskNames() {
					desc, err := m.MaskDescription(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.out, "%s\t%s\n", name, desc)
				}
				return nil
			}

			name := args[1]
			g, err := m.Mask(name)
			if err != nil {
				return err
			}
			switch format {
			case "wkt":
				_, err = fmt.Fprintln(c.out, geojson.ToWKT(g))
				return err
			case "geojson":
				return c.printJSON(geojson.NewFeature(g, map[string]any{"name": name, "area": g.Area()}))
			}
			return fmt.Errorf("unknown format %q (want wkt or geojson)", format)
		},
	}

	cmd.Flags().StringToStringVar(&files, "define", nil, "mask definitions as name=path")
	cmd.Flags().StringVar(&format, "format", "wkt", "output format: wkt or geojson")
	return cmd
}
