package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lifeplan/internal/core"
	"lifeplan/pkg/domain"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Manage projects"}
	cmd.AddCommand(a.projectAddCmd(), a.projectListCmd(), a.projectStatusCmd(), a.projectDeleteCmd())
	return cmd
}

func (a *app) projectAddCmd() *cobra.Command {
	var goalID, goalTitle, description, due string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a project under a goal, or an independent one",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			dueDate, err := optionalTime(due)
			if err != nil {
				return err
			}
			p, _, err := svc.AddProject(ctx, core.Project{
				Title:       args[0],
				Description: description,
				GoalID:      domain.StringPtr(goalID),
				GoalTitle:   domain.StringPtr(goalTitle),
				DueDate:     dueDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatProject(p))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "owning goal ID")
	cmd.Flags().StringVar(&goalTitle, "goal-title", "", "link to the goal with this title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "due date")
	return cmd
}

func (a *app) projectListCmd() *cobra.Command {
	var goalID string
	var independent bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			var projects []core.Project
			switch {
			case goalID != "":
				projects = svc.GetProjectsForGoal(ctx, goalID)
			case independent:
				projects = svc.GetIndependentProjects(ctx)
			default:
				projects = svc.ListProjects(ctx)
			}
			for _, p := range projects {
				fmt.Fprintln(a.out, formatProject(p))
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "only projects of this goal")
	cmd.Flags().BoolVar(&independent, "independent", false, "only projects without a goal")
	return cmd
}

func (a *app) projectStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID todo|in_progress|done",
		Short: "Move a project to another column",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			p, _, err := svc.UpdateProjectStatus(ctx, args[0], core.ProjectStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatProject(p))
			return nil
		}),
	}
}

func (a *app) projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			cascade, _, err := svc.DeleteProject(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted project %s, %d tasks\n", args[0], len(cascade.TaskIDs))
			return nil
		}),
	}
}

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage project tasks"}
	cmd.AddCommand(a.taskAddCmd(), a.taskListCmd(), a.taskDoneCmd(), a.taskDeleteCmd())
	return cmd
}

func (a *app) taskAddCmd() *cobra.Command {
	var description, due string
	cmd := &cobra.Command{
		Use:   "add PROJECT_ID TITLE",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			dueDate, err := optionalTime(due)
			if err != nil {
				return err
			}
			task, _, err := svc.AddTask(ctx, core.Task{ProjectID: args[0], Title: args[1], Description: description, DueDate: dueDate})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatTask(task))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "due date")
	return cmd
}

func (a *app) taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			for _, t := range svc.GetTasksForProject(ctx, args[0]) {
				fmt.Fprintln(a.out, formatTask(t))
			}
			return nil
		}),
	}
}

func (a *app) taskDoneCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done TASK_ID",
		Short: "Complete a task, or reopen it with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			task, _, err := svc.SetTaskCompleted(ctx, args[0], !undo)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatTask(task))
			if p, ok := svc.GetProject(ctx, task.ProjectID); ok {
				fmt.Fprintln(a.out, formatProject(p))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task open again")
	return cmd
}

func (a *app) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROJECT_ID TASK_ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			if _, err := svc.DeleteTask(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted task %s\n", args[1])
			return nil
		}),
	}
}
