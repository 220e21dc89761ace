package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelcast/internal/daemonrun"
	"reelcast/internal/project"
)

func newStepCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "step <project-id> <step>",
		Short: "Re-run one step (script, voice, background, lipsync) of a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := project.ParseStep(args[1])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				res, err := rt.Manager.RunStep(cmd.Context(), args[0], step)
				if err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(cmd, res); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderResult(res))
				}
				if res.Status == project.StatusError {
					return errors.New(string(step) + " failed: " + res.Error)
				}
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
