package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokit/crpipe/pkg/imageio"
	"github.com/astrokit/crpipe/pkg/pipeline"
)

var (
	batchPreset  string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <tool> <image>...",
	Short: "Replay a preset against many images",
	Long: `Run one tool with a saved preset over a list of images, sequentially.
Each image gets its own job; a failed image is reported and the batch moves
on to the next one. The result overwrites each input in place.

Example:
  crpipe batch lacosmic --preset nightly frames/*.tif`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig(cmd)
		if err != nil {
			return err
		}
		if batchPreset == "" {
			return fmt.Errorf("--preset is required for batch runs")
		}

		r, closer, err := buildRunner(cfg)
		if err != nil {
			return err
		}
		defer closer()

		toolName := args[0]
		images := args[1:]
		var failed int

		for _, path := range images {
			img, err := imageio.Load(path)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", path, err)
				failed++
				continue
			}
			base := filepath.Base(path)
			ext := filepath.Ext(base)
			doc := r.Workspace.NewDocument(strings.TrimSuffix(base, ext), img)

			out, err := r.RunPreset(cmd.Context(), doc, toolName, batchPreset, pipeline.ApplyReplace, batchTimeout)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", path, err)
				failed++
				continue
			}
			if err := imageio.Save(out.AppliedDoc.Image(), path); err != nil {
				fmt.Printf("✗ %s: writing result: %v\n", path, err)
				failed++
				continue
			}
			fmt.Printf("✓ %s (%s)\n", path, out.Job.Elapsed.Round(time.Millisecond))
		}

		fmt.Printf("\n%d/%d images corrected\n", len(images)-failed, len(images))
		if failed > 0 {
			return fmt.Errorf("%d of %d images failed", failed, len(images))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVar(&batchPreset, "preset", "", "Preset to replay (required)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "Per-image execution budget")
	batchCmd.MarkFlagRequired("preset")
}
