package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelcast/internal/daemonrun"
	"reelcast/internal/project"
	"reelcast/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var req project.Request
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline for a topic and a source photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(runCtx)

			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				progress := func(step project.Step, phase string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "» %-10s %s\n", step, phase)
				}
				res, err := rt.Manager.RunWorkflow(runCtx, req, progress)
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
					return errors.New("workflow failed: " + res.Error)
				}
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Topic, "topic", "", "What the video is about")
	flags.StringVar(&req.SourcePhotoURL, "photo", "", "Public http(s) URL of the presenter photo")
	flags.StringVar(&req.SceneStyle, "scene", "", "Scene style id or alias (see `reelcast styles`)")
	flags.StringVar(&req.CustomScenePrompt, "scene-prompt", "", "Free-form scene description; implies --scene custom")
	flags.StringVar(&req.Tone, "tone", "", "Script tone: professional, casual, educational, entertaining")
	flags.IntVar(&req.Duration, "duration", 0, "Target duration in seconds")
	flags.StringVar(&req.VoiceID, "voice", "", "ElevenLabs voice id (defaults to elevenlabs.voice_id)")
	flags.StringVar(&req.SyncMode, "sync-mode", "", "Lip-sync mode: accurate or fast")
	addJSONFlag(cmd, &asJSON)
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func renderResult(res workflow.Result) string {
	return renderDetails([]detail{
		{"Project", res.ProjectID},
		{"Status", string(res.Status)},
		{"Script", truncate(res.Script, 160)},
		{"Audio", truncate(res.AudioURL, 80)},
		{"Background", res.BackgroundVideoURL},
		{"Video", res.FinalVideoURL},
		{"Error", res.Error},
	})
}
