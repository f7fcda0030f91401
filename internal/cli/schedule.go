package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lifeplan/internal/core"
	"lifeplan/pkg/domain"
)

func (a *app) timeBlockCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "timeblock", Aliases: []string{"block"}, Short: "Manage scheduled time blocks"}
	cmd.AddCommand(a.timeBlockAddCmd(), a.timeBlockListCmd(), a.timeBlockExpandCmd())
	return cmd
}

func (a *app) timeBlockAddCmd() *cobra.Command {
	var start, end, every, until, projectID, taskID, notes string
	var interval, count int
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Schedule a time block, optionally repeating",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			if start == "" || end == "" {
				return errors.New("--start and --end are required")
			}
			from, err := parseTime(start)
			if err != nil {
				return err
			}
			to, err := parseTime(end)
			if err != nil {
				return err
			}
			block := core.TimeBlock{
				Title:     args[0],
				Start:     from,
				End:       to,
				ProjectID: domain.StringPtr(projectID),
				TaskID:    domain.StringPtr(taskID),
				Notes:     notes,
			}
			if every != "" {
				untilTime, err := optionalTime(until)
				if err != nil {
					return err
				}
				block.Recurrence = &core.Recurrence{Frequency: domain.Frequency(every), Interval: interval, Count: count, Until: untilTime}
			}
			created, _, err := svc.AddTimeBlock(ctx, block)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatTimeBlock(created))
			return nil
		}),
	}
	cmd.Flags().StringVar(&start, "start", "", "start time")
	cmd.Flags().StringVar(&end, "end", "", "end time")
	cmd.Flags().StringVar(&every, "every", "", "repeat daily, weekly or monthly")
	cmd.Flags().IntVar(&interval, "interval", 1, "repeat every N periods")
	cmd.Flags().IntVar(&count, "count", 0, "stop after N occurrences")
	cmd.Flags().StringVar(&until, "until", "", "stop repeating after this date")
	cmd.Flags().StringVar(&projectID, "project", "", "linked project ID")
	cmd.Flags().StringVar(&taskID, "task", "", "linked task ID")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func (a *app) timeBlockListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored time blocks",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			for _, b := range svc.ListTimeBlocks(ctx) {
				fmt.Fprintln(a.out, formatTimeBlock(b))
			}
			return nil
		}),
	}
}

func (a *app) timeBlockExpandCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Show occurrences in a window, the upcoming window by default",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			var blocks []core.TimeBlock
			if from == "" && to == "" {
				blocks = svc.Upcoming(ctx, a.cfg.Service.UpcomingWindow)
			} else {
				start, err := parseTime(from)
				if err != nil {
					return err
				}
				end := start.Add(a.cfg.Service.UpcomingWindow)
				if to != "" {
					if end, err = parseTime(to); err != nil {
						return err
					}
				}
				if !end.After(start) {
					return fmt.Errorf("window end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
				}
				blocks = svc.ExpandTimeBlocks(ctx, start, end)
			}
			for _, b := range blocks {
				fmt.Fprintln(a.out, formatTimeBlock(b))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "window start")
	cmd.Flags().StringVar(&to, "to", "", "window end")
	return cmd
}

func (a *app) todoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "todo", Short: "Manage free-standing todos"}
	cmd.AddCommand(a.todoAddCmd(), a.todoListCmd(), a.todoDoneCmd())
	return cmd
}

func (a *app) todoAddCmd() *cobra.Command {
	var priority, due string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			dueDate, err := optionalTime(due)
			if err != nil {
				return err
			}
			todo, _, err := svc.AddTodo(ctx, core.Todo{Title: args[0], Priority: domain.Priority(priority), DueDate: dueDate})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatTodo(todo))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date")
	return cmd
}

func (a *app) todoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			for _, t := range svc.ListTodos(ctx) {
				fmt.Fprintln(a.out, formatTodo(t))
			}
			return nil
		}),
	}
}

func (a *app) todoDoneCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Complete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			todo, _, err := svc.UpdateTodo(ctx, args[0], func(t *core.Todo) error {
				t.Completed = !undo
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatTodo(todo))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the todo open again")
	return cmd
}
