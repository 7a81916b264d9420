package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrokit/crpipe/pkg/params"
	"github.com/astrokit/crpipe/pkg/tool"
)

var presetSets []string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage saved parameter sets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore(cmd)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No presets saved.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save <tool> <name>",
	Short: "Save a parameter set under a name",
	Long: `Save a parameter set: the tool's defaults overlaid with any --set flags.

Example:
  crpipe presets save lacosmic nightly --set sigclip=2.5 --set niter=4`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore(cmd)
		if err != nil {
			return err
		}
		t, err := tool.NewRegistry().Lookup(args[0])
		if err != nil {
			return err
		}
		set := t.Schema.NewSet()
		if err := applyAssignments(set, presetSets); err != nil {
			return err
		}
		if err := set.Validate(); err != nil {
			return err
		}
		if err := store.Save(args[1], set); err != nil {
			return err
		}
		fmt.Printf("✓ Saved preset %q for %s\n", args[1], t.Name)
		return nil
	},
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <tool> <name>",
	Short: "Print a preset's stored values",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore(cmd)
		if err != nil {
			return err
		}
		t, err := tool.NewRegistry().Lookup(args[0])
		if err != nil {
			return err
		}
		set, err := store.Load(args[1], t.Schema)
		if err != nil {
			return err
		}
		data, err := params.Export(set)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := presetStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted preset %q\n", args[0])
		return nil
	},
}

func presetStore(cmd *cobra.Command) (*params.PresetStore, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	return params.NewPresetStore(cfg.PresetsDir), nil
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd, presetsSaveCmd, presetsShowCmd, presetsDeleteCmd)
	presetsSaveCmd.Flags().StringArrayVar(&presetSets, "set", nil, "Override a parameter as name=value (repeatable)")
}
