package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	gj "github.com/paulmach/go.geojson"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/s1meta/pkg/geojson"
)

// burstsCommand creates the "bursts" command.
func (c *CLI) burstsCommand() *cobra.Command {
	var all bool
	var format string

	cmd := &cobra.Command{
		Use:   "bursts <product>",
		Short: "List the bursts of a split acquisition",
		Long:  `List bursts. A multidataset lists the bursts of every sub-swath; continuous scan products have none.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			bursts, err := m.SubswathBursts(!all)
			if err != nil {
				return err
			}

			switch format {
			case "table":
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SUBSWATH\tBURST\tFIRST\tLAST\tAZIMUTH TIME")
				for _, b := range bursts {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", b.Subswath, b.Index, b.FirstLine, b.LastLine, b.AzimuthTime.Format(time.RFC3339Nano))
				}
				return tw.Flush()
			case "geojson":
				fc := gj.NewFeatureCollection()
				for _, b := range bursts {
					fc.AddFeature(geojson.NewFeature(b.Geometry, map[string]any{
						"subswath":     b.Subswath,
						"index":        b.Index,
						"first_line":   b.FirstLine,
						"last_line":    b.LastLine,
						"azimuth_time": b.AzimuthTime.Format(time.RFC3339Nano),
					}))
				}
				return c.printJSON(fc)
			}
			return fmt.Errorf("unknown format %q (want table or geojson)", format)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "use full burst extents instead of valid areas")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or geojson")
	return cmd
}
