// Command seed applies the schema and creates the admin account, plus one demo
// worker per region with --demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Temutjin2k/fieldtrack/config"
	repo "github.com/Temutjin2k/fieldtrack/internal/adapter/postgres"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/internal/service/auth"
	"github.com/Temutjin2k/fieldtrack/migrations"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/Temutjin2k/fieldtrack/pkg/postgres"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
	demo       = flag.Bool("demo", false, "Also create demo engineers and inspectors")
	demoPass   = flag.String("demo-password", "fieldtrack-demo", "Password of the demo workers")
)

func main() {
	flag.Parse()

	log := logger.InitLogger("seed", logger.LevelInfo)

	// short timeout for migration operations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "seed failed", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Seed.AdminPassword == "" {
		return fmt.Errorf("%w: seed.admin_password is required", config.ErrInvalidConfig)
	}

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(ctx, db.Pool); err != nil {
		return err
	}

	users := []seedUser{{
		User:     models.User{Name: cfg.Seed.AdminName, Email: cfg.Seed.AdminEmail, Role: types.RoleAdmin},
		Password: cfg.Seed.AdminPassword,
	}}
	if *demo {
		users = append(users, demoWorkers(*demoPass)...)
	}

	userRepo := repo.NewUserRepo(db.Pool)
	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password of %s: %w", u.Email, err)
		}
		u.PasswordHash = hash

		created, err := userRepo.Create(ctx, &u.User)
		if err != nil {
			return err
		}
		log.Info(ctx, "user ensured", "email", u.Email, "role", u.Role.String(), "created", created)
	}

	return nil
}

type seedUser struct {
	models.User
	Password string
}

func demoWorkers(password string) []seedUser {
	regions := []types.Region{types.RegionRisaralda, types.RegionCaldas, types.RegionQuindio}
	workers := make([]seedUser, 0, len(regions)*2)
	for i, region := range regions {
		workers = append(workers,
			seedUser{
				User: models.User{
					Name:      fmt.Sprintf("Ingeniero %d", i+1),
					Email:     fmt.Sprintf("ingeniero%d@fieldtrack.local", i+1),
					Role:      types.RoleEngineer,
					Transport: types.TransportMotorcycle,
					Region:    region,
				},
				Password: password,
			},
			seedUser{
				User: models.User{
					Name:      fmt.Sprintf("Inspector %d", i+1),
					Email:     fmt.Sprintf("inspector%d@fieldtrack.local", i+1),
					Role:      types.RoleInspector,
					Transport: types.TransportCar,
					Region:    region,
				},
				Password: password,
			},
		)
	}
	return workers
}
