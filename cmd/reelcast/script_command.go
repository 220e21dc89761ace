package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelcast/internal/daemonrun"
	"reelcast/internal/script"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var req script.Request
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Write a standalone script without creating a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				if req.DurationSeconds == 0 {
					req.DurationSeconds = rt.Config.Workflow.DefaultDuration
				}
				if req.Tone == "" {
					req.Tone = rt.Config.Workflow.DefaultTone
				}
				res, err := rt.Stages.Script.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, res)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Script)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "%d words (target %d), about %ds spoken\n",
					res.WordCount, res.TargetWordCount, res.EstimatedDurationSeconds)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Topic, "topic", "", "What the script is about")
	flags.IntVar(&req.DurationSeconds, "duration", 0, "Target duration in seconds (defaults to workflow.default_duration)")
	flags.StringVar(&req.Tone, "tone", "", "Script tone: professional, casual, educational, entertaining")
	flags.StringVar(&req.Style, "style", "", "Delivery style: monologue, interview, tutorial, story")
	addJSONFlag(cmd, &asJSON)
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}
