package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/retile/internal/pipeline"
	"github.com/kiesman99/retile/internal/stitch"
	"github.com/kiesman99/retile/internal/tilestore"
	"github.com/kiesman99/retile/pkg/tile"
)

var rearrangeCmd = &cobra.Command{
	Use:   "rearrange",
	Short: "Composite tiles from --tile-dir onto a new canvas",
	Long: `Allocate a 4x3 tile canvas filled with --fill and draw the tile of every
coordinate over it in order. The tile at sequence index i lands at
x = (i mod 4)*256, y = (i div 3)*256.

Examples:
  retile rearrange --coords "2,2,0 2,0,1 2,2,2 2,1,1 2,0,2 2,2,1 2,1,2 2,1,0" -o tilecache-after.png`,
	RunE: runRearrange,
}

func init() {
	rootCmd.AddCommand(rearrangeCmd)

	rearrangeCmd.Flags().String("coords", tile.FormatCoords(pipeline.DefaultCoords), "tile coordinates 'source,column,row' in placement order")
	rearrangeCmd.Flags().StringP("output", "o", pipeline.DefaultOutput, "output file")

	bindFlags(rearrangeCmd.Flags().Lookup, "rearrange.", "coords", "output")
}

func runRearrange(cmd *cobra.Command, args []string) error {
	coords, err := tile.ParseCoords(viper.GetString("rearrange.coords"))
	if err != nil {
		return err
	}
	if len(coords) == 0 {
		return fmt.Errorf("at least one coordinate is required (use --coords)")
	}

	opts, err := canvasOptions()
	if err != nil {
		return err
	}

	output := viper.GetString("rearrange.output")
	store := tilestore.NewDir(viper.GetString("tile-dir"))

	fmt.Fprintf(cmd.ErrOrStderr(), "writing %s\n", output)
	_, err = stitch.NewStitcher(opts).RearrangeToFile(cmd.Context(), coords, store, output)
	return err
}
