// bundleconv inspects and converts measurement bundles from the command
// line: validation, a value report, and rescaling between image resolutions.
package main

import (
	"fmt"
	"os"

	"spine-measure/internal/bundle"
	"spine-measure/internal/calibration"
	"spine-measure/internal/measure"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "bundleconv",
		Short:         "Inspect and convert spine-measure bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(infoCmd(), validateCmd(), rescaleCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <bundle.json>",
		Short: "Print the bundle's measurements with computed values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bundle.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("image: %s (%.0fx%.0f)\n", b.ImageID, b.ImageWidth, b.ImageHeight)
			calib := referenceFrom(b)
			if calib.Active() {
				fmt.Printf("calibration: %.1f mm reference\n", b.StandardDistance)
			} else {
				fmt.Println("calibration: none (nominal film scale)")
			}

			ctx := identityContext(b)
			for _, m := range b.Measurements {
				tool, ok := measure.Get(m.Type)
				if !ok {
					fmt.Printf("  %-18s ?\n", m.Type)
					continue
				}
				value := measure.ValueString(tool.Compute(m.Points, calib, ctx))
				fmt.Printf("  %-18s %s\n", m.Type, value)
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <bundle.json>",
		Short: "Check a bundle without converting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bundle.Load(args[0])
			if err != nil {
				return err
			}
			if err := b.Validate(); err != nil {
				return err
			}
			fmt.Printf("ok: %d measurements\n", len(b.Measurements))
			return nil
		},
	}
}

func rescaleCmd() *cobra.Command {
	var width, height int
	var out string

	cmd := &cobra.Command{
		Use:   "rescale <bundle.json>",
		Short: "Rescale a bundle's points to a new image resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return fmt.Errorf("both --width and --height are required")
			}
			b, err := bundle.Load(args[0])
			if err != nil {
				return err
			}
			if err := b.Validate(); err != nil {
				return err
			}

			b.RescaleTo(geometry.NewSize(float64(width), float64(height)))
			if out == "" {
				out = args[0]
			}
			if err := b.Save(out); err != nil {
				return err
			}
			fmt.Printf("rescaled to %dx%d: %s\n", width, height, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "target image width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "target image height in pixels")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: overwrite input)")
	return cmd
}

// referenceFrom rebuilds the calibration reference stored in the bundle.
func referenceFrom(b *bundle.Bundle) *calibration.Reference {
	ref := &calibration.Reference{DistanceMm: b.StandardDistance}
	ref.SetPoints(b.StandardDistancePoints)
	return ref
}

// identityContext is a viewport where image and viewport space coincide, so
// headless computation matches what the canvas would report.
func identityContext(b *bundle.Bundle) viewport.Context {
	size := geometry.NewSize(b.ImageWidth, b.ImageHeight)
	return viewport.Context{ImageSize: size, ContainerSize: size, Zoom: 1}
}
