// Package api serves tasks, the daily plan and the dashboard over HTTP.
// Every mutation goes through the reconciliation orchestrator.
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskera/pkg/export"
	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/planner"
	"github.com/harrisonrobin/taskera/pkg/store"
)

// Tasks is the read side of the task store.
type Tasks interface {
	Get(ctx context.Context, owner string, id int64) (model.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Task, error)
	ListByDay(ctx context.Context, owner string, day model.Date) ([]model.Task, error)
	ListSortedByPriority(ctx context.Context, owner string) ([]model.Task, error)
	DistinctDueDates(ctx context.Context, owner string) ([]model.Date, error)
}

// Mutations is implemented by reconcile.Orchestrator.
type Mutations interface {
	Insert(ctx context.Context, t model.Task) (model.Task, error)
	Update(ctx context.Context, prev, next model.Task) (model.Task, error)
	SetCompleted(ctx context.Context, prev model.Task, done bool) (model.Task, error)
	Delete(ctx context.Context, t model.Task) error
}

// Settings is the shared reminder configuration.
type Settings interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	DefaultLeadMinutes(ctx context.Context) (int, error)
	SetRemindersEnabled(ctx context.Context, enabled bool) error
	SetDefaultLeadMinutes(ctx context.Context, minutes int) error
}

type Server struct {
	tasks    Tasks
	mut      Mutations
	settings Settings
	owner    string
	loc      *time.Location
	now      func() time.Time
}

func NewServer(tasks Tasks, mut Mutations, settings Settings, owner string, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{tasks: tasks, mut: mut, settings: settings, owner: owner, loc: loc, now: time.Now}
}

// New returns an Echo instance with the routes and the logging middleware.
func New(s *Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}).Debug("request")
			return nil
		},
	}))
	Register(e, s)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, s *Server) {
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/tasks", s.listTasks)
	e.POST("/tasks", s.createTask)
	e.GET("/tasks/:id", s.getTask)
	e.PUT("/tasks/:id", s.updateTask)
	e.POST("/tasks/:id/complete", s.completeTask)
	e.DELETE("/tasks/:id", s.deleteTask)

	e.GET("/dates", s.listDates)
	e.GET("/plan", s.getPlan)
	e.GET("/plan.pdf", s.getPlanPDF)
	e.GET("/dashboard", s.getDashboard)

	e.GET("/settings", s.getSettings)
	e.PUT("/settings", s.putSettings)
}

// httpError maps local failures onto status codes.
func httpError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, model.ErrInvalidTask):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return c.String(http.StatusNotFound, err.Error())
	}
	log.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
	return c.String(http.StatusInternalServerError, err.Error())
}

func (s *Server) today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

// dayParam reads ?day=YYYY-MM-DD, today when absent.
func (s *Server) dayParam(c echo.Context) (model.Date, error) {
	raw := c.QueryParam("day")
	if raw == "" {
		return s.today(), nil
	}
	return model.ParseDate(raw)
}

func (s *Server) loadTask(c echo.Context) (model.Task, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return model.Task{}, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	return s.tasks.Get(c.Request().Context(), s.owner, id)
}

func (s *Server) listTasks(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("day") != "" {
		day, err := model.ParseDate(c.QueryParam("day"))
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		tasks, err := s.tasks.ListByDay(ctx, s.owner, day)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, toJSONList(tasks))
	}

	mode, err := planner.ParseSortMode(c.QueryParam("sort"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	var tasks []model.Task
	if mode == planner.SortPriority {
		tasks, err = s.tasks.ListSortedByPriority(ctx, s.owner)
	} else {
		tasks, err = s.tasks.ListByOwner(ctx, s.owner)
	}
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toJSONList(planner.SortTasks(tasks, mode)))
}

func (s *Server) getTask(c echo.Context) error {
	task, err := s.loadTask(c)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toJSON(task))
}

func (s *Server) createTask(c echo.Context) error {
	var in taskInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	task, err := in.apply(model.Task{Owner: s.owner})
	if err != nil {
		return httpError(c, err)
	}
	created, err := s.mut.Insert(c.Request().Context(), task)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, toJSON(created))
}

func (s *Server) updateTask(c echo.Context) error {
	prev, err := s.loadTask(c)
	if err != nil {
		return httpError(c, err)
	}
	var in taskInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	next, err := in.apply(prev)
	if err != nil {
		return httpError(c, err)
	}
	updated, err := s.mut.Update(c.Request().Context(), prev, next)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toJSON(updated))
}

// completeTask marks a task done, or open again with ?done=false.
func (s *Server) completeTask(c echo.Context) error {
	done := true
	if raw := c.QueryParam("done"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid done flag")
		}
		done = v
	}
	prev, err := s.loadTask(c)
	if err != nil {
		return httpError(c, err)
	}
	updated, err := s.mut.SetCompleted(c.Request().Context(), prev, done)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toJSON(updated))
}

func (s *Server) deleteTask(c echo.Context) error {
	task, err := s.loadTask(c)
	if err != nil {
		return httpError(c, err)
	}
	if err := s.mut.Delete(c.Request().Context(), task); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listDates(c echo.Context) error {
	dates, err := s.tasks.DistinctDueDates(c.Request().Context(), s.owner)
	if err != nil {
		return httpError(c, err)
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) dayTasks(c echo.Context) (model.Date, []model.Task, error) {
	day, err := s.dayParam(c)
	if err != nil {
		return day, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tasks, err := s.tasks.ListByDay(c.Request().Context(), s.owner, day)
	return day, tasks, err
}

func (s *Server) getPlan(c echo.Context) error {
	day, tasks, err := s.dayTasks(c)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"day":      day.String(),
		"segments": toSegmentJSON(planner.DayPlan(tasks, day, s.loc)),
	})
}

func (s *Server) getPlanPDF(c echo.Context) error {
	day, tasks, err := s.dayTasks(c)
	if err != nil {
		return httpError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WritePlan(&buf, day, tasks); err != nil {
		return httpError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.FileName(day)+`"`)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) getDashboard(c echo.Context) error {
	tasks, err := s.tasks.ListByOwner(c.Request().Context(), s.owner)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, planner.BuildDashboard(tasks, s.today()))
}

func (s *Server) getSettings(c echo.Context) error {
	current, err := s.currentSettings(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, current)
}

func (s *Server) currentSettings(ctx context.Context) (settingsJSON, error) {
	enabled, err := s.settings.RemindersEnabled(ctx)
	if err != nil {
		return settingsJSON{}, err
	}
	lead, err := s.settings.DefaultLeadMinutes(ctx)
	if err != nil {
		return settingsJSON{}, err
	}
	return settingsJSON{RemindersEnabled: enabled, DefaultLeadMinutes: lead}, nil
}

// putSettings writes only the fields present in the body.
func (s *Server) putSettings(c echo.Context) error {
	var in settingsInput
	if err := c.Bind(&in); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if in.DefaultLeadMinutes != nil && *in.DefaultLeadMinutes < 0 {
		return c.String(http.StatusBadRequest, "default lead must not be negative")
	}
	ctx := c.Request().Context()
	if in.RemindersEnabled != nil {
		if err := s.settings.SetRemindersEnabled(ctx, *in.RemindersEnabled); err != nil {
			return httpError(c, err)
		}
	}
	if in.DefaultLeadMinutes != nil {
		if err := s.settings.SetDefaultLeadMinutes(ctx, *in.DefaultLeadMinutes); err != nil {
			return httpError(c, err)
		}
	}
	current, err := s.currentSettings(ctx)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, current)
}
