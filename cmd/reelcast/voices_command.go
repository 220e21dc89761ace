package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/daemonrun"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "Inspect ElevenLabs voices",
	}
	voicesCmd.AddCommand(newVoicesListCommand(ctx))
	voicesCmd.AddCommand(newVoicesShowCommand(ctx))
	return voicesCmd
}

func newVoicesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List voices available to the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				voices, err := rt.Stages.Voice.ListVoices(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, voices)
				}
				if len(voices) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No voices available")
					return nil
				}
				defaultID := rt.Stages.Voice.DefaultVoiceID()
				rows := make([][]string, 0, len(voices))
				for _, v := range voices {
					marker := ""
					if v.VoiceID == defaultID {
						marker = "*"
					}
					rows = append(rows, []string{marker, v.VoiceID, v.Name, v.Category})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"", "ID", "Name", "Category"}, rows, nil))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newVoicesShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <voice-id>",
		Short: "Show one voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				v, err := rt.Stages.Voice.GetVoice(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, v)
				}
				keys := make([]string, 0, len(v.Labels))
				for k := range v.Labels {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				labels := make([]string, 0, len(keys))
				for _, k := range keys {
					labels = append(labels, k+"="+v.Labels[k])
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderDetails([]detail{
					{"ID", v.VoiceID},
					{"Name", v.Name},
					{"Category", v.Category},
					{"Description", v.Description},
					{"Labels", strings.Join(labels, ", ")},
					{"Preview", v.PreviewURL},
				}))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
