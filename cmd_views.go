package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/taskera/pkg/config"
	"github.com/harrisonrobin/taskera/pkg/export"
	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/planner"
	"github.com/harrisonrobin/taskera/pkg/store"
)

func newPlanCmd() *cobra.Command {
	var day, pdfDir string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the daily plan with free time between tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				d, err := dayOrToday(day, a.today())
				if err != nil {
					return err
				}
				tasks, err := a.store.ListByDay(cmd.Context(), a.owner, d)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if pdfDir != "" {
					path, err := export.SavePlan(pdfDir, d, tasks)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "PDF saved to %s\n", path)
					return nil
				}

				return printPlan(out, d, planner.DayPlan(tasks, d, a.loc))
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Day to plan (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&pdfDir, "pdf", "", "Write the plan as a PDF into this directory instead")
	return cmd
}

func printPlan(out io.Writer, day model.Date, segments []planner.Segment) error {
	if segments == nil {
		fmt.Fprintf(out, "No timed tasks on %s.\n", day)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range segments {
		label := "Free time"
		if s.Kind == planner.SegmentTask {
			label = s.Task.Title
		}
		fmt.Fprintf(w, "%s - %s\t%s\t%s\n", s.Start.Format("15:04"), s.End.Format("15:04"), label, s.Duration().Round(time.Minute))
	}
	return w.Flush()
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's progress and the last week's statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				tasks, err := a.store.ListByOwner(cmd.Context(), a.owner)
				if err != nil {
					return err
				}
				printDashboard(cmd.OutOrStdout(), planner.BuildDashboard(tasks, a.today()))
				return nil
			})
		},
	}
}

func printDashboard(out io.Writer, d planner.Dashboard) {
	fmt.Fprintf(out, "Today (%s): %d of %d done (%.0f%%)\n\n", d.Today, d.CompletedToday, d.TotalToday, d.Progress()*100)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTASKS (7 DAYS)")
	for _, c := range d.WeekByCategory {
		fmt.Fprintf(w, "%s\t%d\n", c.Category, c.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DAY\tCOMPLETED")
	for _, day := range d.Trend {
		fmt.Fprintf(w, "%s\t%s\n", day.Date, strings.Repeat("#", day.Count))
	}
	w.Flush()
}

func newSettingsCmd() *cobra.Command {
	var (
		reminders bool
		lead      int
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change reminder settings",
		Example: `  taskera settings --reminders=false
  taskera settings --lead 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				if cmd.Flags().Changed("reminders") {
					if err := a.store.SetRemindersEnabled(ctx, reminders); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("lead") {
					if lead < 0 {
						return fmt.Errorf("lead must not be negative")
					}
					if err := a.store.SetDefaultLeadMinutes(ctx, lead); err != nil {
						return err
					}
				}
				return printSettings(ctx, cmd.OutOrStdout(), a.store)
			})
		},
	}
	cmd.Flags().BoolVar(&reminders, "reminders", true, "Enable or disable reminders")
	cmd.Flags().IntVar(&lead, "lead", 0, "Default reminder lead in minutes")
	return cmd
}

func printSettings(ctx context.Context, out io.Writer, st *store.Store) error {
	enabled, err := st.RemindersEnabled(ctx)
	if err != nil {
		return err
	}
	minutes, err := st.DefaultLeadMinutes(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reminders enabled: %t\nDefault lead: %d minutes\n", enabled, minutes)
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one configuration value",
		Example: `  taskera config set account me@example.com
  taskera config set redis.addr localhost:6380`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "account":
		cfg.Account = value
	case "calendar":
		cfg.Calendar = value
	case "timezone":
		cfg.Timezone = value
		if _, err := cfg.Location(); err != nil {
			return err
		}
	case "db_path":
		cfg.DBPath = value
	case "log_level":
		cfg.LogLevel = value
	case "redis.addr":
		cfg.Redis.Addr = value
	case "redis.password":
		cfg.Redis.Password = value
	case "redis.db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("redis.db: %w", err)
		}
		cfg.Redis.DB = n
	case "redis.prefix":
		cfg.Redis.Prefix = value
	case "server.addr":
		cfg.Server.Addr = value
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
	return nil
}

// dayOrToday parses an optional day flag.
func dayOrToday(raw string, today model.Date) (model.Date, error) {
	d, err := parseDay(raw, today)
	if err != nil || d == nil {
		return today, err
	}
	return *d, nil
}
