package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lifeplan/internal/core"
)

func (a *app) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Verify and repair project to goal links",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			stats, err := svc.AuditProjectGoalRelationships(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "checked %d projects: %d issues found, %d fixed (%d relinked, %d demoted, %d titles, %d links)\n",
				stats.Checked, stats.IssuesFound, stats.IssuesFixed, stats.Relinked, stats.Demoted, stats.TitlesRefreshed, stats.LinksRepaired)
			return nil
		}),
	}
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Detach projects whose goal no longer exists",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			n, err := svc.CleanupOrphanedProjects(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d orphaned projects detached\n", n)
			return nil
		}),
	}
}

func (a *app) linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Link independent projects to goals by their remembered goal title",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			n, err := svc.LinkProjectsToGoalsByTitle(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d projects linked\n", n)
			return nil
		}),
	}
}

func (a *app) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload storage, reconcile progress and audit links",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			if !svc.RefreshData(ctx) {
				return errors.New("refresh failed, see log")
			}
			fmt.Fprintln(a.out, "refreshed")
			return nil
		}),
	}
}

func (a *app) domainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "Show goal counts per life domain",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, svc *core.Service, _ []string) error {
			for _, d := range svc.Domains(ctx) {
				fmt.Fprintf(a.out, "%-14s %d/%d goals completed\n", d.Name, d.CompletedGoalCount, d.GoalCount)
			}
			return nil
		}),
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if cfg.File != "" {
				fmt.Fprintf(a.out, "# %s\n", cfg.File)
			}
			_, err = a.out.Write(data)
			return err
		},
	})
	return cmd
}
