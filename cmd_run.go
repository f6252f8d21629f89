package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskera/pkg/api"
	"github.com/harrisonrobin/taskera/pkg/auth"
	"github.com/harrisonrobin/taskera/pkg/config"
	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/planner"
	"github.com/harrisonrobin/taskera/pkg/reminder"
	"github.com/harrisonrobin/taskera/pkg/voice"
)

func newAuthCmd() *cobra.Command {
	var logout bool
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect or disconnect the Google account",
		Long: `Runs the Google OAuth flow in the browser and caches the token next to
credentials.json in the configuration directory. Use --logout to forget it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("could not find configuration directory: %w", err)
			}
			if logout {
				if err := auth.Logout(dir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			}
			if err := auth.Login(cmd.Context(), dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authentication successful.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&logout, "logout", false, "Remove the cached token")
	return cmd
}

func newVoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voice PHRASE...",
		Short: "Run a spoken command such as \"delete task groceries\"",
		Long: `Commands: add task <title>, delete task <name>, edit task <name>,
show tasks [all|today|tomorrow|MM/dd/yyyy], settings, dashboard, daily plan.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				return runVoice(cmd.Context(), a, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func runVoice(ctx context.Context, a *app, spoken string, in io.Reader, out io.Writer) error {
	today := a.today()
	vc, err := voice.Parse(spoken, today)
	if err != nil {
		fmt.Fprintln(out, err)
		return nil
	}

	switch vc.Kind {
	case voice.KindAdd:
		if vc.Query == "" {
			fmt.Fprintln(out, "Use \"taskera add TITLE\" to enter the task details.")
			return nil
		}
		task, err := a.orch.Insert(ctx, model.Task{
			Title:    vc.Query,
			Priority: model.PriorityLow,
			Category: model.CategoryPersonal,
			Owner:    a.owner,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added task #%d \"%s\"\n", task.ID, task.Title)

	case voice.KindDelete, voice.KindEdit:
		tasks, err := a.store.ListByOwner(ctx, a.owner)
		if err != nil {
			return err
		}
		matches := voice.Match(tasks, vc.Query)
		switch len(matches) {
		case 0:
			fmt.Fprintf(out, "No task named \"%s\" found\n", vc.Query)
		case 1:
			if vc.Kind == voice.KindEdit {
				fmt.Fprintf(out, "Edit it with: taskera edit %d\n", matches[0].ID)
				return nil
			}
			if err := a.orch.Delete(ctx, matches[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted task \"%s\"\n", matches[0].Title)
		default:
			titles := make([]string, len(matches))
			for i, t := range matches {
				titles[i] = t.Title
			}
			fmt.Fprintf(out, "Multiple matches: %s. Be more specific.\n", strings.Join(titles, ", "))
		}

	case voice.KindShow:
		if vc.NeedsTarget() {
			fmt.Fprintln(out, voice.Describe(vc, nil))
			answer, err := bufio.NewReader(in).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if vc, err = voice.ParseShowTarget(answer, today); err != nil {
				fmt.Fprintln(out, err)
				return nil
			}
		}
		tasks, err := a.store.ListByOwner(ctx, a.owner)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, voice.Describe(vc, tasks))

	case voice.KindSettings:
		return printSettings(ctx, out, a.store)

	case voice.KindDashboard:
		tasks, err := a.store.ListByOwner(ctx, a.owner)
		if err != nil {
			return err
		}
		printDashboard(out, planner.BuildDashboard(tasks, today))

	case voice.KindDailyPlan:
		tasks, err := a.store.ListByDay(ctx, a.owner, today)
		if err != nil {
			return err
		}
		return printPlan(out, today, planner.DayPlan(tasks, today, a.loc))

	default:
		fmt.Fprintln(out, "Commands: add task, delete task, edit task, show tasks, settings, dashboard, daily plan")
	}
	return nil
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver due reminders until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if a.queue == nil {
					return fmt.Errorf("the reminder worker needs redis at %s", a.cfg.Redis.Addr)
				}
				w := reminder.NewWorker(a.queue, reminder.LogNotifier{Out: os.Stdout})
				if a.cfg.Reminders.StaleAfter > 0 {
					w.StaleAfter = a.cfg.Reminders.StaleAfter
				}
				if a.cfg.Reminders.PollInterval > 0 {
					w.PollInterval = a.cfg.Reminders.PollInterval
				}
				log.WithFields(log.Fields{
					"redis": a.cfg.Redis.Addr,
					"poll":  w.PollInterval.String(),
				}).Info("reminder worker started")

				err := w.Run(cmd.Context())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				e := api.New(api.NewServer(a.store, a.orch, a.store, a.owner, a.loc))

				errc := make(chan error, 1)
				go func() {
					log.WithField("addr", addr).Info("api listening")
					errc <- e.Start(addr)
				}()

				select {
				case err := <-errc:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-cmd.Context().Done():
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return e.Shutdown(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
