package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/scene"
)

func newStylesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List scene styles, including overrides from scene.styles_file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := scene.LoadCatalog(cfg.Scene.StylesFile)
			if err != nil {
				return err
			}
			styles := catalog.Styles()
			if asJSON {
				return writeJSON(cmd, styles)
			}
			rows := make([][]string, 0, len(styles))
			for _, s := range styles {
				description := s.Description
				if s.ID == scene.StyleCustom {
					description = "(supplied with --scene-prompt)"
				}
				rows = append(rows, []string{s.ID, s.Label, strings.Join(s.Aliases, ", "), truncate(description, 60)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Label", "Aliases", "Description"}, rows, nil))
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
