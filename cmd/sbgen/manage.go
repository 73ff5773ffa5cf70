package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/validation"
	"github.com/spf13/cobra"
)

func targetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "targets",
		Aliases: []string{"target"},
		Short:   "Inspect and check targets",
	}

	var output string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			list, err := targets.NewFileRepository(targetsDir).List()
			if err != nil {
				return err
			}
			list = targets.RedactTargets(list)

			if output == "json" {
				return printJSON(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tDSN")
			for _, t := range list {
				dsn := t.DSN
				if len(dsn) > 50 {
					dsn = dsn[:47] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Kind, dsn)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show target details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTarget(args[0])
			if err != nil {
				return err
			}
			return printYAML(targets.RedactTarget(t))
		},
	}

	var checkOutput string
	checkCmd := &cobra.Command{
		Use:   "check <id|path>",
		Short: "Connect to a target and report what it allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(checkOutput); err != nil {
				return err
			}
			t, err := loadTarget(args[0])
			if err != nil {
				return err
			}
			validator := validation.NewValidator(registry.DefaultTableRegistry())
			res, err := app.CheckTarget(validator, t)
			if res == nil {
				return err
			}
			if checkOutput == "json" {
				if perr := printJSON(res); perr != nil {
					return perr
				}
			} else {
				printCheck(t, res)
			}
			if !res.OK {
				return fmt.Errorf("target %s check failed", t.ID)
			}
			return nil
		},
	}
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "table", "Output format (table|json)")

	cmd.AddCommand(listCmd, showCmd, checkCmd)
	return cmd
}

func loadTarget(arg string) (*domain.TargetConfig, error) {
	repo := targets.NewFileRepository(targetsDir)
	if isPath(arg) {
		return repo.GetByPath(arg)
	}
	return repo.Get(arg)
}

func printCheck(t *domain.TargetConfig, res *domain.TargetCheck) {
	status := "ok"
	if !res.OK {
		status = "failed"
	}
	fmt.Printf("Target:   %s (%s)\n", t.Name, t.Kind)
	fmt.Printf("Status:   %s\n", status)
	fmt.Printf("Latency:  %dms\n", res.LatencyMS)
	if res.ServerVersion != "" {
		fmt.Printf("Version:  %s\n", res.ServerVersion)
	}
	fmt.Printf("Create:   %t\n", res.Capabilities.CanCreate)
	fmt.Printf("Insert:   %t\n", res.Capabilities.CanInsert)
	fmt.Printf("Truncate: %t\n", res.Capabilities.CanTruncate)
	if res.Error != "" {
		fmt.Printf("Error:    %s\n", res.Error)
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage run profiles",
	}

	var output string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			list, err := profiles.NewFileRepository(profilesDir).List()
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSCALE\tTABLES\tSPATIAL")
			for _, p := range list {
				tables := "all"
				if len(p.Tables) > 0 {
					tables = fmt.Sprint(len(p.Tables))
				}
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%t\n", p.ID, p.Name, p.ScaleFactor, tables, p.Spatial != nil)
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show profile details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			return printYAML(p)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <id|path>",
		Short: "Validate a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			validator := validation.NewValidator(registry.DefaultTableRegistry())
			if err := validator.ValidateProfile(p); err != nil {
				fmt.Printf("Validation failed: %v\n", err)
				return err
			}
			fmt.Printf("Profile '%s' is valid\n", p.Name)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, validateCmd)
	return cmd
}

func loadProfile(arg string) (*domain.Profile, error) {
	repo := profiles.NewFileRepository(profilesDir)
	if isPath(arg) {
		return repo.GetByPath(arg)
	}
	return repo.Get(arg)
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"run"},
		Short:   "Inspect run history",
	}

	var limit int
	var status string
	var output string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			list, err := runRepo.List(limit, status)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTARGET\tSCALE\tSTATUS\tROWS\tSTARTED")
			for _, r := range list {
				id := r.ID
				if len(id) > 8 {
					id = id[:8]
				}
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%d/%d\t%s\n",
					id, r.TargetName, r.ScaleFactor, r.Status, r.RowsGenerated, r.RowsTotal, r.StartedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Limit results")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status")
	listCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")

	var logs int
	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			run, err := runRepo.Get(args[0])
			if err != nil {
				return err
			}
			if err := printJSON(run); err != nil {
				return err
			}
			if logs <= 0 {
				return nil
			}
			entries, err := runRepo.ListRunLogs(run.ID, logs)
			if err != nil {
				return err
			}
			fmt.Println("logs:")
			for i := len(entries) - 1; i >= 0; i-- {
				l := entries[i]
				fmt.Printf("  %s %-5s %s\n", l.CreatedAt.Format("2006-01-02 15:04:05"), l.Level, l.Message)
			}
			return nil
		},
	}
	showCmd.Flags().IntVar(&logs, "logs", 20, "Number of recent log lines to show (0 hides them)")

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}
