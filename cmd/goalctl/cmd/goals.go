package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/templui/goalplanner/internal/app"
)

func GenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a goal with subgoals from a free-text prompt and save it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.GoalService.Generate(cmd.Context(), prompt)
				if err != nil {
					return err
				}
				if !result.Persisted {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", result.Warning)
				}
				return printJSON(cmd.OutOrStdout(), result.Goal)
			})
		},
	}
}

func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				goals, err := a.GoalService.All(cmd.Context())
				if err != nil {
					return err
				}
				for _, g := range goals {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d/%d\n",
						g.ID, g.Deadline, g.Title, g.CompletedCount(), len(g.Subgoals))
				}
				return nil
			})
		},
	}
}

func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one goal as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				goal, ok, err := a.GoalService.ByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("goal %d not found", id)
				}
				return printJSON(cmd.OutOrStdout(), goal)
			})
		},
	}
}

func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				return a.GoalService.Delete(cmd.Context(), id)
			})
		},
	}
}

func CompleteCmd() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "complete <id> <subgoal-title>",
		Short: "Mark a subgoal as completed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			return withApp(cmd.Context(), func(a *app.App) error {
				goal, ok, err := a.GoalService.SetSubgoalCompleted(cmd.Context(), id, title, !undo)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("goal %d has no subgoal %q", id, title)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.0f%% complete\n", goal.Title, goal.Progress()*100)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark the subgoal as not completed")
	return cmd
}
