package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kiesman99/retile/internal/grid"
	"github.com/kiesman99/retile/internal/pipeline"
	"github.com/kiesman99/retile/internal/slicer"
	"github.com/kiesman99/retile/internal/stitch"
	"github.com/kiesman99/retile/pkg/tile"
)

// Version is set by ldflags during build
var Version = "dev"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "retile",
	Short: "Slice images into tiles, reassemble them and draw debug grids",
	Long: `retile cuts source images into 256x256 tiles, composites a chosen list of
tiles onto a new canvas in order, and overlays a tile grid for inspection.

Without a subcommand it runs the whole sequence: optionally slice --sources
into memory, rearrange --coords into --output, then draw the grid into
--grid-output.

Examples:
  # Slice raz1.png raz2.png raz3.png into slice<s>.<c>.<r>.png files
  retile slice

  # Rearrange tiles already on disk
  retile rearrange --coords "2,2,0 2,0,1 2,2,2 2,1,1" -o tilecache-after.png

  # Grid overlay
  retile grid tilecache-after.png tilecache-after-grid.png

  # Everything in one process, tiles never touch disk
  retile --sources raz1.png,raz2.png,raz3.png

  # Start HTTP server
  retile serve --port 8080`,
	SilenceUsage: true,
	Version:      Version,
	RunE:         runPipeline,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.retile.yaml)")
	rootCmd.PersistentFlags().String("tile-dir", ".", "directory holding slice<s>.<c>.<r>.png tiles")
	rootCmd.PersistentFlags().IntP("tile-size", "t", tile.Size, "tile size in pixels")
	rootCmd.PersistentFlags().Int("columns", tile.DefaultColumns, "tile columns cut from each source")
	rootCmd.PersistentFlags().Int("rows", tile.DefaultRows, "tile rows cut from each source")
	rootCmd.PersistentFlags().Int("canvas-columns", tile.DefaultCanvasColumns, "canvas width in tiles")
	rootCmd.PersistentFlags().Int("canvas-rows", tile.DefaultCanvasRows, "canvas height in tiles")
	rootCmd.PersistentFlags().String("fill", tile.DefaultFill, "canvas fill color (#rrggbb or #rrggbbaa)")
	rootCmd.PersistentFlags().Int("grid-spacing", tile.Size, "grid line spacing in pixels")
	rootCmd.PersistentFlags().String("grid-color", "#000000", "grid line color")

	bindFlags(rootCmd.PersistentFlags().Lookup, "",
		"tile-dir", "tile-size", "columns", "rows", "canvas-columns", "canvas-rows",
		"fill", "grid-spacing", "grid-color")

	// Pipeline flags
	rootCmd.Flags().StringSlice("sources", nil, "source images to slice in memory before rearranging")
	rootCmd.Flags().Bool("keep-tiles", false, "also write sliced tiles to --tile-dir")
	rootCmd.Flags().String("coords", tile.FormatCoords(pipeline.DefaultCoords), "tile coordinates 'source,column,row' in placement order")
	rootCmd.Flags().StringP("output", "o", pipeline.DefaultOutput, "rearranged canvas output file")
	rootCmd.Flags().String("grid-output", pipeline.DefaultGridOutput, "grid overlay output file (empty to skip)")

	bindFlags(rootCmd.Flags().Lookup, "", "sources", "keep-tiles", "coords", "output", "grid-output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".retile" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".retile")
	}

	viper.SetEnvPrefix("retile")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	coords, err := tile.ParseCoords(viper.GetString("coords"))
	if err != nil {
		return err
	}

	canvas, err := canvasOptions()
	if err != nil {
		return err
	}
	gridOpts, err := gridOptions()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(cmd.Context(), pipeline.Config{
		Sources:    viper.GetStringSlice("sources"),
		TileDir:    viper.GetString("tile-dir"),
		KeepTiles:  viper.GetBool("keep-tiles"),
		Coords:     coords,
		Output:     viper.GetString("output"),
		GridOutput: viper.GetString("grid-output"),
		Slice:      sliceOptions(),
		Canvas:     canvas,
		Grid:       gridOpts,
		Progress:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if result.Tiles > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "sliced %d tiles in memory\n", result.Tiles)
	}
	return nil
}

// bindFlags binds each named flag to the viper key prefix+name
func bindFlags(lookup func(string) *pflag.Flag, prefix string, names ...string) {
	for _, name := range names {
		viper.BindPFlag(prefix+name, lookup(name))
	}
}

func sliceOptions() slicer.Options {
	return slicer.Options{
		Columns:  viper.GetInt("columns"),
		Rows:     viper.GetInt("rows"),
		TileSize: viper.GetInt("tile-size"),
	}
}

func canvasOptions() (stitch.Options, error) {
	fill, err := tile.ParseColor(viper.GetString("fill"))
	if err != nil {
		return stitch.Options{}, fmt.Errorf("invalid --fill: %w", err)
	}
	return stitch.Options{
		Columns:  viper.GetInt("canvas-columns"),
		Rows:     viper.GetInt("canvas-rows"),
		TileSize: viper.GetInt("tile-size"),
		Fill:     fill,
	}, nil
}

func gridOptions() (grid.Options, error) {
	c, err := tile.ParseColor(viper.GetString("grid-color"))
	if err != nil {
		return grid.Options{}, fmt.Errorf("invalid --grid-color: %w", err)
	}
	return grid.Options{
		Spacing: viper.GetInt("grid-spacing"),
		Color:   c,
	}, nil
}
