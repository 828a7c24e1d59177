// Package app wires repositories, services and the scheduler from config.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"salescrm/internal/config"
	"salescrm/internal/database"
	"salescrm/internal/domain/customfield"
	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/reminder"
	"salescrm/internal/domain/sweep"
	"salescrm/internal/domain/transfer"
	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/jwt"
)

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&lead.Lead{},
		&customfield.FieldDefinition{},
		&reminder.Mark{},
	}
}

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Log    zerolog.Logger

	JWT       *jwt.Service
	Users     *user.Service
	Fields    *customfield.Service
	LeadRepo  *lead.Repository
	Leads     *lead.Service
	Transfer  *transfer.Service
	Reminders *reminder.Service
	Hub       *reminder.Hub
	Notifier  reminder.Notifier
	Scheduler *sweep.Scheduler
}

// Open connects to the database, migrates it and builds all services.
func Open(cfg *config.Config, log zerolog.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db, Models()...); err != nil {
		return nil, err
	}
	return New(cfg, db, log), nil
}

func New(cfg *config.Config, db *gorm.DB, log zerolog.Logger) *App {
	a := &App{Config: cfg, DB: db, Log: log}

	a.JWT = jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	a.Users = user.NewService(user.NewRepository(db), a.JWT, cfg.JWTTTL)
	a.Fields = customfield.NewService(customfield.NewRepository(db))

	a.LeadRepo = lead.NewRepository(db)
	a.Leads = lead.NewService(a.LeadRepo, a.Users, a.Fields, cfg.Location, log)
	a.Transfer = transfer.NewService(a.Leads, log.With().Str("component", "transfer").Logger())

	remLog := log.With().Str("component", "reminder").Logger()
	a.Reminders = reminder.NewService(a.LeadRepo, reminder.NewMarkStore(db), cfg.Location, cfg.Reminder.Window, cfg.Reminder.MarkTTL, remLog)
	a.Hub = reminder.NewHub()

	notifiers := []reminder.Notifier{reminder.NewHubNotifier(a.Hub)}
	if cfg.Reminder.WebhookURL != "" {
		notifiers = append(notifiers, reminder.NewWebhookNotifier(cfg.Reminder.WebhookURL, cfg.Reminder.WebhookTimeout))
	} else {
		notifiers = append(notifiers, reminder.NewLogNotifier(remLog))
	}
	a.Notifier = reminder.NewMultiNotifier(notifiers...)

	sweepLog := log.With().Str("component", "scheduler").Logger()
	a.Scheduler = sweep.NewScheduler(
		sweep.Config{
			LockFile:     cfg.Scheduler.LockFile,
			RecycleCron:  cfg.Scheduler.RecycleCron,
			ReminderCron: cfg.Scheduler.ReminderCron,
			PurgeCron:    cfg.Scheduler.MarkPurgeCron,
			Location:     cfg.Location,
		},
		sweep.NewRecycler(a.LeadRepo, cfg.Scheduler.RecycleAfter, sweepLog),
		sweep.NewReminderSweep(a.LeadRepo, a.Notifier, cfg.Location, sweepLog),
		a.Reminders,
		sweepLog,
	)
	return a
}

// Close releases the database pool.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StopTimeout bounds graceful shutdown of the HTTP server and scheduler.
const StopTimeout = 15 * time.Second
