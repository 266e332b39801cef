package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/templui/goalplanner/internal/app"
	"github.com/templui/goalplanner/internal/generation"
	"github.com/templui/goalplanner/internal/model"
)

type importFile struct {
	Goals []importGoal `yaml:"goals"`
}

type importGoal struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Deadline    string          `yaml:"deadline"`
	Subgoals    []importSubgoal `yaml:"subgoals"`
}

type importSubgoal struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Completed   bool   `yaml:"completed"`
}

func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Save hand-written goals from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			goals, err := parseImport(f)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				for _, g := range goals {
					saved, err := a.GoalService.Save(cmd.Context(), g)
					if err != nil {
						return fmt.Errorf("import %q: %w", g.Title, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", saved.ID, saved.Title)
				}
				return nil
			})
		},
	}
}

// parseImport reads the goals document. Deadlines accept the same layouts as
// generated goals.
func parseImport(r io.Reader) ([]*model.Goal, error) {
	var file importFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(file.Goals) == 0 {
		return nil, fmt.Errorf("import file has no goals")
	}

	goals := make([]*model.Goal, 0, len(file.Goals))
	for i, in := range file.Goals {
		deadline, ok := generation.ParseDeadline(strings.TrimSpace(in.Deadline))
		if !ok {
			return nil, fmt.Errorf("goal %d: invalid deadline %q", i+1, in.Deadline)
		}

		g := &model.Goal{
			Title:       in.Title,
			Description: in.Description,
			Deadline:    deadline,
		}
		for _, sub := range in.Subgoals {
			g.Subgoals = append(g.Subgoals, model.Subgoal{
				Title:       sub.Title,
				Description: sub.Description,
				Completed:   sub.Completed,
			})
		}
		goals = append(goals, g)
	}
	return goals, nil
}
