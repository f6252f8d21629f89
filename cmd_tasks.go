package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/planner"
)

// taskFlags are the editable fields shared by add and edit.
type taskFlags struct {
	description string
	due         string
	start       string
	end         string
	priority    string
	category    string
	lead        int
	noSchedule  bool
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "Description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time HH:MM (needs --end)")
	cmd.Flags().StringVar(&f.end, "end", "", "End time HH:MM (needs --start)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "High, Medium or Low")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Personal, Work, Study, Health, Finance or Other")
	cmd.Flags().IntVar(&f.lead, "lead", -1, "Reminder lead in minutes (default from settings)")
}

// apply sets every flag the user passed onto t.
func (f *taskFlags) apply(cmd *cobra.Command, t model.Task, today model.Date) (model.Task, error) {
	changed := cmd.Flags().Changed
	if changed("desc") {
		t.Description = f.description
	}
	if changed("priority") {
		t.Priority = model.ParsePriority(f.priority)
	}
	if changed("category") {
		t.Category = model.ParseCategory(f.category)
	}
	if changed("lead") {
		if f.lead < 0 {
			t.LeadTimeMin = nil
		} else {
			lead := f.lead
			t.LeadTimeMin = &lead
		}
	}
	if f.noSchedule {
		t.DueDate, t.StartTime, t.EndTime = nil, nil, nil
	}
	if changed("due") {
		d, err := parseDay(f.due, today)
		if err != nil {
			return t, err
		}
		t.DueDate = d
	}
	if changed("start") {
		c, err := parseClock(f.start)
		if err != nil {
			return t, err
		}
		t.StartTime = c
	}
	if changed("end") {
		c, err := parseClock(f.end)
		if err != nil {
			return t, err
		}
		t.EndTime = c
	}
	return t, nil
}

// parseDay accepts YYYY-MM-DD, "today" and "tomorrow". Empty clears.
func parseDay(s string, today model.Date) (*model.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "today":
		return &today, nil
	case "tomorrow":
		d := today.AddDays(1)
		return &d, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseClock(s string) (*model.Clock, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	c, err := model.ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func newAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Example: `  taskera add Dentist --due 2025-06-10 --start 09:00 --end 10:00 -c Health -p High
  taskera add "Pay rent" --due tomorrow --lead 60`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				task := model.Task{
					Title:    strings.Join(args, " "),
					Priority: model.PriorityLow,
					Category: model.CategoryPersonal,
					Owner:    a.owner,
				}
				task, err := f.apply(cmd, task, a.today())
				if err != nil {
					return err
				}
				created, err := a.orch.Insert(cmd.Context(), task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task #%d %q\n", created.ID, created.Title)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		f     taskFlags
		title string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				prev, err := a.store.Get(cmd.Context(), a.owner, id)
				if err != nil {
					return err
				}
				next, err := f.apply(cmd, prev, a.today())
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					next.Title = title
				}
				updated, err := a.orch.Update(cmd.Context(), prev, next)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d %q\n", updated.ID, updated.Title)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().BoolVar(&f.noSchedule, "no-schedule", false, "Remove due date and times")
	return cmd
}

// newDoneCmd builds "done" or, with done=false, "undo".
func newDoneCmd(done bool) *cobra.Command {
	use, short, verb := "done ID", "Mark a task completed", "Completed"
	if !done {
		use, short, verb = "undo ID", "Mark a task open again", "Reopened"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				prev, err := a.store.Get(cmd.Context(), a.owner, id)
				if err != nil {
					return err
				}
				if _, err := a.orch.SetCompleted(cmd.Context(), prev, done); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d %q\n", verb, prev.ID, prev.Title)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task with its calendar event and reminder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				task, err := a.store.Get(cmd.Context(), a.owner, id)
				if err != nil {
					return err
				}
				if err := a.orch.Delete(cmd.Context(), task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d %q\n", task.ID, task.Title)
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var day, sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := planner.ParseSortMode(sortBy)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				var tasks []model.Task
				switch {
				case day != "":
					d, err := parseDay(day, a.today())
					if err != nil {
						return err
					}
					tasks, err = a.store.ListByDay(ctx, a.owner, *d)
					if err != nil {
						return err
					}
				case mode == planner.SortPriority:
					if tasks, err = a.store.ListSortedByPriority(ctx, a.owner); err != nil {
						return err
					}
				default:
					if tasks, err = a.store.ListByOwner(ctx, a.owner); err != nil {
						return err
					}
				}
				printTasks(cmd.OutOrStdout(), planner.SortTasks(tasks, mode))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Only tasks due on this day (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "default", "default, priority or due")
	return cmd
}

func newDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the days that have tasks due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				dates, err := a.store.DistinctDueDates(cmd.Context(), a.owner)
				if err != nil {
					return err
				}
				for _, d := range dates {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			})
		},
	}
}

func printTasks(out io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tDUE\tTIME\tPRIORITY\tCATEGORY\tTITLE\tSYNCED")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		due, window := "-", "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		if t.StartTime != nil && t.EndTime != nil {
			window = t.StartTime.String() + "-" + t.EndTime.String()
		}
		synced := ""
		if t.EventID != "" {
			synced = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, done, due, window, t.Priority, t.Category, t.Title, synced)
	}
	w.Flush()
}
