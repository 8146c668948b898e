package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fractalscope/fractalscope/pkg/preset"
)

// presetsCommand creates the preset management command.
func (c *CLI) presetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List and export built-in view presets",
	}

	cmd.AddCommand(c.presetsListCommand())
	cmd.AddCommand(c.presetsShowCommand())
	cmd.AddCommand(c.presetsExportCommand())

	return cmd
}

// presetsListCommand creates the "presets list" subcommand.
func (c *CLI) presetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

			rows := [][]string{}
			for _, p := range preset.Builtins() {
				rows = append(rows, []string{
					p.Name,
					p.Variant,
					fmt.Sprintf("%.6g%+.6gi", p.CenterRe, p.CenterIm),
					fmt.Sprintf("%.3g", p.Span),
					fmt.Sprintf("%d", p.MaxIter),
					p.Description,
				})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Name", "Variant", "Center", "Span", "Iter", "Description").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					if col == 0 {
						return StyleHighlight
					}
					if col == 5 {
						return StyleDim
					}
					return StyleValue
				})

			fmt.Println(t.Render())
			printNextStep("Render one", "fractalscope render --preset seahorse-valley")
			return nil
		},
	}
}

// presetsShowCommand creates the "presets show" subcommand.
func (c *CLI) presetsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one preset in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPreset(args[0])
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(p.Name))
			if p.Description != "" {
				printDetail("%s", p.Description)
			}
			printNewline()
			printKeyValue("variant", p.Variant)
			printKeyValue("center", fmt.Sprintf("%.10g %+.10gi", p.CenterRe, p.CenterIm))
			printKeyValue("span", fmt.Sprintf("%.6g", p.Span))
			printKeyValue("power", fmt.Sprintf("%.3g", p.Power))
			printKeyValue("shape", fmt.Sprintf("%.4g %+.4gi", p.ShapeRe, p.ShapeIm))
			printKeyValue("max iter", fmt.Sprintf("%d", p.MaxIter))
			printKeyValue("escape", fmt.Sprintf("%.3g", p.EscapeRadius))
			printKeyValue("scheme", p.Scheme)
			return nil
		},
	}
}

// presetsExportCommand creates the "presets export" subcommand.
func (c *CLI) presetsExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export a built-in preset to a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPreset(args[0])
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = p.Name + ".toml"
			}
			if err := preset.Save(path, *p); err != nil {
				return err
			}
			printSuccess("Exported %s", p.Name)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <name>.toml)")
	return cmd
}
