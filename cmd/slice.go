package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/retile/internal/slicer"
	"github.com/kiesman99/retile/internal/tilestore"
)

var sliceCmd = &cobra.Command{
	Use:   "slice [sources...]",
	Short: "Cut source images into a grid of tile files",
	Long: `Cut each source image into a grid of tiles (3x3 of 256px by default) and
write every tile to --tile-dir as slice<source>.<column>.<row>.png, where
source is the position of the image in the argument list. Existing tiles with
the same name are overwritten.

Examples:
  # Slice the default inputs raz1.png raz2.png raz3.png
  retile slice

  # Slice two images into ./tiles
  retile slice a.png b.png --tile-dir tiles`,
	RunE: runSlice,
}

func init() {
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	sources := args
	if len(sources) == 0 {
		sources = slicer.DefaultSources
	}

	store := tilestore.NewDir(viper.GetString("tile-dir"))
	coords, err := slicer.New(sliceOptions()).SliceAll(cmd.Context(), sources, store)
	for _, c := range coords {
		fmt.Fprintf(cmd.ErrOrStderr(), "writing %s\n", store.Path(c))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d tiles from %d sources\n", len(coords), len(sources))
	return nil
}
