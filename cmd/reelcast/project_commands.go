package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelcast/internal/daemonrun"
	"reelcast/internal/project"
	"reelcast/internal/services"
)

const timeLayout = "2006-01-02 15:04:05"

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Inspect stored projects",
	}
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	return projectCmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently created first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := project.ListOptions{Limit: limit}
			for _, raw := range statuses {
				status := project.Status(strings.ToLower(strings.TrimSpace(raw)))
				if !status.Valid() {
					return fmt.Errorf("%w: unknown status %q", services.ErrValidation, raw)
				}
				opts.Statuses = append(opts.Statuses, status)
			}
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				projects, err := rt.Store.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if asJSON {
					if projects == nil {
						projects = []*project.Project{}
					}
					return writeJSON(cmd, projects)
				}
				if len(projects) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects")
					return nil
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						p.ID,
						string(p.Status),
						string(p.CurrentStep),
						truncate(p.Title, 40),
						p.UpdatedAt.Local().Format(timeLayout),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Step", "Title", "Updated"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show projects in these statuses")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of projects to show (0 for all)")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				p, ok, err := rt.Store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: unknown project %s", services.ErrNotFound, args[0])
				}
				if asJSON {
					return writeJSON(cmd, p)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProject(p))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *daemonrun.Runtime) error {
				removed, err := rt.Store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: unknown project %s", services.ErrNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
				return nil
			})
		},
	}
}

func renderProject(p *project.Project) string {
	seconds := func(n int) string {
		if n <= 0 {
			return ""
		}
		return strconv.Itoa(n) + "s"
	}
	scene := p.SceneStyle
	if p.SceneProvider != "" {
		scene += " via " + p.SceneProvider
		if p.Degraded {
			scene += " (fallback)"
		}
	}
	return renderDetails([]detail{
		{"ID", p.ID},
		{"Title", p.Title},
		{"Status", string(p.Status)},
		{"Step", string(p.CurrentStep)},
		{"Topic", p.Topic},
		{"Tone", p.Tone},
		{"Duration", seconds(p.Duration)},
		{"Script", truncate(p.Script, 240)},
		{"Words", wordsLabel(p)},
		{"Voice", p.VoiceID},
		{"Audio", truncate(p.AudioURL, 80)},
		{"Photo", p.SourcePhotoURL},
		{"Scene", scene},
		{"Background", p.BackgroundVideoURL},
		{"Sync mode", p.SyncMode},
		{"Video", p.FinalVideoURL},
		{"Thumbnail", p.ThumbnailURL},
		{"Error", p.Error},
		{"Created", formatTime(p.CreatedAt)},
		{"Updated", formatTime(p.UpdatedAt)},
	})
}

func wordsLabel(p *project.Project) string {
	if p.WordCount == 0 {
		return ""
	}
	return fmt.Sprintf("%d (~%ds)", p.WordCount, p.ScriptDuration)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}
