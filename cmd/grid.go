package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiesman99/retile/internal/grid"
)

var gridCmd = &cobra.Command{
	Use:   "grid <input> <output>",
	Short: "Overlay tile grid lines on an image",
	Long: `Draw vertical and horizontal 1px lines every --grid-spacing pixels,
starting at 0. A line that would fall exactly on the right or bottom edge is
moved one pixel inwards so it stays visible.

Examples:
  retile grid raz1.png raz1-grid.png
  retile grid tilecache-after.png tilecache-after-grid.png --grid-color "#ff0000"`,
	Args: cobra.ExactArgs(2),
	RunE: runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	opts, err := gridOptions()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "writing %s\n", args[1])
	return grid.DrawFile(args[0], args[1], opts)
}
