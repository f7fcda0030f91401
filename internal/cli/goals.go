package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lifeplan/internal/core"
)

func (a *app) goalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "goal", Short: "Manage goals"}
	cmd.AddCommand(a.goalAddCmd(), a.goalListCmd(), a.goalUpdateCmd(), a.goalDeleteCmd())
	return cmd
}

func (a *app) goalAddCmd() *cobra.Command {
	var description, domainName, color, icon, target string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a goal; the life domain is inferred when not given",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			targetDate, err := optionalTime(target)
			if err != nil {
				return err
			}
			g, _, err := svc.AddGoal(ctx, core.Goal{
				Title:       args[0],
				Description: description,
				Domain:      domainName,
				Color:       color,
				Icon:        icon,
				TargetDate:  targetDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatGoal(g))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&domainName, "domain", "", "life domain name")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&target, "target", "", "target date")
	return cmd
}

func (a *app) goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			for _, g := range svc.ListGoals(ctx) {
				fmt.Fprintln(a.out, formatGoal(g))
			}
			return nil
		}),
	}
}

func (a *app) goalUpdateCmd() *cobra.Command {
	var title, description, domainName string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename or reclassify a goal",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			g, _, err := svc.UpdateGoal(ctx, args[0], func(g *core.Goal) error {
				if title != "" {
					g.Title = title
				}
				if description != "" {
					g.Description = description
				}
				if domainName != "" {
					g.Domain = domainName
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatGoal(g))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&domainName, "domain", "", "new life domain")
	return cmd
}

func (a *app) goalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a goal with its projects and their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(ctx context.Context, svc *core.Service, args []string) error {
			cascade, _, err := svc.DeleteGoal(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted goal %s, %d projects, %d tasks\n", args[0], len(cascade.ProjectIDs), len(cascade.TaskIDs))
			return nil
		}),
	}
}
