package cli

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// infoCommand creates the "info" command.
func (c *CLI) infoCommand() *cobra.Command {
	var keys string

	cmd := &cobra.Command{
		Use:   "info <product>",
		Short: "Print product attributes",
		Long: `Print product attributes as JSON. --keys is "minimal", "all" or a comma separated list of attribute names.
Attributes a multidataset cannot provide are null.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}

			props, err := m.ToMap(strings.Split(keys, ",")...)
			if err != nil {
				return err
			}
			if fp, ok := props["footprint"].(geom.Polygon); ok {
				props["footprint"] = geojson.ToWKT(fp)
			}
			if m.IsMultidataset() {
				names := make([]string, 0)
				for _, sd := range m.Subdatasets() {
					names = append(names, sd.Name)
				}
				props["subdatasets"] = names
			}
			return c.printJSON(props)
		},
	}

	cmd.Flags().StringVar(&keys, "keys", "minimal", "attributes to print")
	return cmd
}

// footprintCommand creates the "footprint" command.
func (c *CLI) footprintCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "footprint <product>",
		Short: "Print the product footprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			fp, err := m.Footprint()
			if err != nil {
				return err
			}

			switch format {
			case "wkt":
				_, err = fmt.Fprintln(c.out, geojson.ToWKT(fp))
				return err
			case "geojson":
				return c.printJSON(geojson.NewFeature(fp, map[string]any{"name": m.Name()}))
			}
			return fmt.Errorf("unknown format %q (want wkt or geojson)", format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "wkt", "output format: wkt or geojson")
	return cmd
}
