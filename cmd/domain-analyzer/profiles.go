package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balticscan/domain-analyzer/internal/catalog"
	"github.com/balticscan/domain-analyzer/internal/config"
)

// newProfilesCmd lists the profile catalog and, with --plan, shows how
// a request resolves.
func newProfilesCmd() *cobra.Command {
	var (
		planRequest string
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List analysis profiles and resolve execution plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return configError{err}
			}
			cat := catalog.Builtin(catalog.BuiltinOptions{
				MonitorUsesFullWhois: cfg.Profiles.MonitorUsesFullWhois,
			})

			if planRequest != "" {
				return printPlan(cmd, cat, planRequest)
			}
			printCatalog(cmd, cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&planRequest, "plan", "", "Resolve a profile request and print its execution plan")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	return cmd
}

func printCatalog(cmd *cobra.Command, cat *catalog.Catalog) {
	out := cmd.OutOrStdout()
	for _, category := range []catalog.Category{
		catalog.CategoryCore,
		catalog.CategoryAnalysis,
		catalog.CategoryIntelligence,
		catalog.CategoryMeta,
	} {
		profiles := cat.ByCategory(category)
		if len(profiles) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s:\n", category)
		for _, p := range profiles {
			detail := ""
			if len(p.Members) > 0 {
				detail = " = " + strings.Join(p.Members, ", ")
			} else if len(p.Dependencies) > 0 {
				detail = " (needs " + strings.Join(p.Dependencies, ", ") + ")"
			}
			fmt.Fprintf(out, "  %-14s %s%s\n", p.Name, p.Description, detail)
		}
		fmt.Fprintln(out)
	}
}

func printPlan(cmd *cobra.Command, cat *catalog.Catalog, request string) error {
	plan, err := cat.ResolveRequest(request)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requested: %s\n", strings.Join(plan.Requested, ", "))
	fmt.Fprintf(out, "expanded:  %s\n", strings.Join(plan.Expanded, ", "))
	fmt.Fprintf(out, "order:     %s\n", strings.Join(plan.ExecutionOrder, ", "))
	for i, group := range plan.ParallelGroups {
		fmt.Fprintf(out, "group %d:   %s\n", i+1, strings.Join(group, ", "))
	}
	if plan.EstimatedDuration > 0 {
		fmt.Fprintf(out, "estimated: %s\n", plan.EstimatedDuration)
	}
	return nil
}
