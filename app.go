package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskera/pkg/config"
	"github.com/harrisonrobin/taskera/pkg/google"
	"github.com/harrisonrobin/taskera/pkg/jobs"
	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/reconcile"
	"github.com/harrisonrobin/taskera/pkg/reminder"
	"github.com/harrisonrobin/taskera/pkg/store"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg   *config.Config
	dir   string
	loc   *time.Location
	owner string

	db    *sql.DB
	store *store.Store
	redis *redis.Client
	queue *jobs.Queue
	orch  *reconcile.Orchestrator
}

// openApp opens the database and, when Redis answers, the reminder queue.
// Without Redis tasks still sync, they just get no reminders.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, dir: dir, loc: loc, owner: cfg.Account, db: db, store: store.NewStore(db, loc)}

	rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unavailable, reminders disabled for this run")
		_ = rc.Close()
	} else {
		a.redis = rc
		a.queue = jobs.NewQueue(rc, cfg.Redis.Prefix)
	}

	calendar := google.NewCalendarClient(google.FromTokenDir(dir), cfg.Calendar, loc)
	if a.queue != nil {
		a.orch = reconcile.New(a.store, calendar, reminder.NewScheduler(a.queue, a.store, loc), loc)
	} else {
		a.orch = reconcile.New(a.store, calendar, nil, loc)
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.db.Close()
}

func (a *app) today() model.Date {
	return model.DateOf(time.Now().In(a.loc))
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
