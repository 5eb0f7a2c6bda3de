package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/s1meta/internal/geoloc"
)

func approxOption(approx bool) geoloc.Option {
	if approx {
		return geoloc.Approx()
	}
	return geoloc.Accurate()
}

// coordsToLLCommand creates the "coords2ll" command.
func (c *CLI) coordsToLLCommand() *cobra.Command {
	var lines, pixels []float64
	var approx bool

	cmd := &cobra.Command{
		Use:   "coords2ll <product>",
		Short: "Convert image coordinates to lon/lat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			e, err := m.Engine()
			if err != nil {
				return err
			}
			lons, lats, err := e.CoordsToLL(lines, pixels, approxOption(approx))
			if err != nil {
				return err
			}
			for i := range lons {
				fmt.Fprintf(c.out, "%g %g -> %.6f %.6f\n", lines[i], pixels[i], lons[i], lats[i])
			}
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&lines, "line", nil, "image lines")
	cmd.Flags().Float64SliceVar(&pixels, "pixel", nil, "image pixels")
	cmd.Flags().BoolVar(&approx, "approx", false, "use the affine approximation")
	cmd.MarkFlagRequired("line")
	cmd.MarkFlagRequired("pixel")
	return cmd
}

// llToCoordsCommand creates the "ll2coords" command.
func (c *CLI) llToCoordsCommand() *cobra.Command {
	var lons, lats []float64
	var approx bool

	cmd := &cobra.Command{
		Use:   "ll2coords <product>",
		Short: "Convert lon/lat to image coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			e, err := m.Engine()
			if err != nil {
				return err
			}
			lines, pixels, err := e.LLToCoords(lons, lats, approxOption(approx))
			if err != nil {
				return err
			}
			for i := range lines {
				fmt.Fprintf(c.out, "%g %g -> %.3f %.3f\n", lons[i], lats[i], lines[i], pixels[i])
			}
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&lons, "lon", nil, "longitudes")
	cmd.Flags().Float64SliceVar(&lats, "lat", nil, "latitudes")
	cmd.Flags().BoolVar(&approx, "approx", false, "use the inverse affine approximation")
	cmd.MarkFlagRequired("lon")
	cmd.MarkFlagRequired("lat")
	return cmd
}

// headingCommand creates the "heading" command.
func (c *CLI) headingCommand() *cobra.Command {
	var lines, pixels []float64
	var accurate bool

	cmd := &cobra.Command{
		Use:   "heading <product>",
		Short: "Print the ground heading at image coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.open(args[0])
			if err != nil {
				return err
			}
			e, err := m.Engine()
			if err != nil {
				return err
			}
			headings, err := e.CoordsToHeading(lines, pixels, approxOption(!accurate))
			if err != nil {
				return err
			}
			for i, h := range headings {
				fmt.Fprintf(c.out, "%g %g -> %.4f\n", lines[i], pixels[i], h)
			}
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&lines, "line", nil, "image lines")
	cmd.Flags().Float64SliceVar(&pixels, "pixel", nil, "image pixels")
	cmd.Flags().BoolVar(&accurate, "accurate", false, "interpolate the grid instead of the affine approximation")
	cmd.MarkFlagRequired("line")
	cmd.MarkFlagRequired("pixel")
	return cmd
}
