package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salescrm/internal/app"
	"salescrm/internal/config"
	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/logger"
)

func main() {
	demo := flag.Bool("demo", false, "also create demo sales reps and leads")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, App: "seed"})

	a, err := app.Open(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("open app")
	}
	defer a.Close()
	ctx := context.Background()

	n, err := a.Fields.EnsureDefaults(ctx)
	if err != nil {
		lg.Fatal().Err(err).Msg("default custom fields")
	}
	lg.Info().Int("created", n).Msg("default custom fields ensured")

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		if config.IsProdLike(cfg.AppEnv) {
			lg.Fatal().Msg("SEED_ADMIN_PASSWORD is required outside development")
		}
		password = "admin123"
	}
	if _, err := ensureUser(ctx, a, username, password, true); err != nil {
		lg.Fatal().Err(err).Msg("seed admin")
	}

	if *demo {
		if err := seedDemo(ctx, a, lg); err != nil {
			lg.Fatal().Err(err).Msg("seed demo data")
		}
	}
	lg.Info().Msg("seed completed")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ensureUser creates the user unless the username is already taken.
func ensureUser(ctx context.Context, a *app.App, username, password string, admin bool) (*user.User, error) {
	repo := user.NewRepository(a.DB)
	if u, err := repo.GetByUsername(ctx, username); err == nil {
		a.Log.Info().Str("username", username).Msg("user exists, skipped")
		return u, nil
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &user.User{Username: username, PasswordHash: hash, IsStaff: true, IsSuperuser: admin, IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		return nil, err
	}
	a.Log.Info().Str("username", username).Bool("admin", admin).Msg("user created")
	return u, nil
}

var demoStatuses = []lead.Status{
	lead.StatusWaitContact,
	lead.StatusWaitFollowup,
	lead.StatusWaitVisit,
	lead.StatusVisited,
	lead.StatusSigned,
	lead.StatusNoIntent,
	lead.StatusUnreachable,
}

var demoCities = []string{"上海", "北京", "杭州", "深圳", "成都"}

func seedDemo(ctx context.Context, a *app.App, lg zerolog.Logger) error {
	var reps []*user.User
	for i := 1; i <= 2; i++ {
		u, err := ensureUser(ctx, a, fmt.Sprintf("sales%d", i), "sales123", false)
		if err != nil {
			return err
		}
		reps = append(reps, u)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0
	for i := 0; i < 20; i++ {
		phone := fmt.Sprintf("1390000%04d", i)
		exists, err := a.LeadRepo.ExistsPhone(ctx, phone)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		l := &lead.Lead{
			Name:     fmt.Sprintf("演示客户%02d", i+1),
			Phone:    phone,
			Status:   demoStatuses[i%len(demoStatuses)],
			Source:   "演示数据",
			CityAuto: demoCities[rnd.Intn(len(demoCities))],
		}
		// every third lead stays in the pool
		if i%3 != 0 {
			id := reps[i%len(reps)].ID
			l.SalesRepID = &id
		}
		if rnd.Intn(2) == 0 {
			next := time.Now().Add(time.Duration(rnd.Intn(7*24)) * time.Hour)
			l.NextContactTime = &next
		}
		if err := a.LeadRepo.Create(ctx, l); err != nil {
			return err
		}
		created++
	}
	lg.Info().Int("created", created).Msg("demo leads created")
	return nil
}
