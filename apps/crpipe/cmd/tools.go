package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astrokit/crpipe/pkg/params"
	"github.com/astrokit/crpipe/pkg/tool"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available correction tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := configuredRegistry(cmd)
		if err != nil {
			return err
		}
		for _, name := range reg.Names() {
			t, _ := reg.Lookup(name)
			fmt.Printf("%-12s %s\n", name, t.Script)
		}
		return nil
	},
}

var toolsShowCmd = &cobra.Command{
	Use:   "show <tool>",
	Short: "Print a tool's parameters, defaults, and bounds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := configuredRegistry(cmd)
		if err != nil {
			return err
		}
		t, err := reg.Lookup(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", t.Name, t.Script)
		fmt.Printf("  output suffix: %s\n", t.OutputSuffix)
		if t.MaskSuffix != "" {
			fmt.Printf("  mask suffix:   %s\n", t.MaskSuffix)
		}
		fmt.Println("  parameters:")
		for _, d := range t.Schema.Defs() {
			var domain []string
			if d.Min != nil {
				domain = append(domain, fmt.Sprintf("min %s", params.FormatValue(*d.Min)))
			}
			if d.Max != nil {
				domain = append(domain, fmt.Sprintf("max %s", params.FormatValue(*d.Max)))
			}
			if len(d.Choices) > 0 {
				choices := make([]string, 0, len(d.Choices))
				for _, c := range d.Choices {
					if c != "" {
						choices = append(choices, c)
					}
				}
				domain = append(domain, "one of "+strings.Join(choices, "|"))
			}
			line := fmt.Sprintf("    %-12s %-8s default %s", d.Name, d.Kind, params.FormatValue(d.Default))
			if len(domain) > 0 {
				line += "  (" + strings.Join(domain, ", ") + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func configuredRegistry(cmd *cobra.Command) (*tool.Registry, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	reg := tool.NewRegistry()
	if err := cfg.ApplyToolOverrides(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsShowCmd)
}
