package cmd

import (
	"fmt"

	"github.com/smazurov/camnode/internal/acquisition"
	"github.com/spf13/cobra"
)

// CreateROICmd creates the roi command.
func CreateROICmd() *cobra.Command {
	sensor := acquisition.DefaultSensor

	cmd := &cobra.Command{
		Use:   "roi [spec]",
		Short: "Resolve a region of interest",
		Long: `Resolves a preset name or "width,height,offsetX,offsetY" against the sensor bounds ` +
			`and prints the region that would be applied. Fails when the region does not fit the sensor.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec string
			if len(args) == 1 {
				spec = args[0]
			}
			r, err := acquisition.ParseROI(spec, sensor)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "width:    %d\n", r.Width)
			fmt.Fprintf(out, "height:   %d\n", r.Height)
			fmt.Fprintf(out, "offset_x: %d\n", r.OffsetX)
			fmt.Fprintf(out, "offset_y: %d\n", r.OffsetY)
			return nil
		},
	}

	cmd.Flags().IntVar(&sensor.Width, "sensor-width", sensor.Width, "Sensor width in pixels")
	cmd.Flags().IntVar(&sensor.Height, "sensor-height", sensor.Height, "Sensor height in pixels")
	cmd.SilenceUsage = true

	return cmd
}
