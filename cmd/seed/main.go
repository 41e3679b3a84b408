// Package main implements a seed tool that populates the storefront database
// with an admin account, demo users, and a starter catalog of motors.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/motorline/storefront/internal/config"
	"github.com/motorline/storefront/internal/domain"
	postgresrepo "github.com/motorline/storefront/internal/repository/postgres"
	"github.com/motorline/storefront/migrations"
	"github.com/motorline/storefront/pkg/database"
	"github.com/motorline/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	users := postgresrepo.NewUserRepository(pool)
	motors := postgresrepo.NewMotorRepository(pool)

	adminID, err := seedUser(ctx, users, "Admin", "admin@motorline.io", envOr("SEED_ADMIN_PASSWORD", "admin123"), domain.RoleAdmin, log)
	if err != nil {
		log.Error("failed to seed admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, u := range []struct{ name, email string }{
		{"John Doe", "john@example.com"},
		{"Jane Doe", "jane@example.com"},
	} {
		if _, err := seedUser(ctx, users, u.name, u.email, "123456", domain.RoleUser, log); err != nil {
			log.Error("failed to seed user", slog.String("email", u.email), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	for _, m := range sampleMotors(adminID) {
		if err := motors.Create(ctx, &m); err != nil {
			log.Error("failed to seed motor", slog.String("name", m.Name), slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("seeded motor", slog.String("name", m.Name))
	}

	log.Info("seed complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedUser inserts a user if the email is not taken and returns its ID.
func seedUser(ctx context.Context, repo *postgresrepo.UserRepository, name, email, password, role string, log *slog.Logger) (string, error) {
	if existing, err := repo.GetByEmail(ctx, email); err == nil {
		log.Info("user already seeded", slog.String("email", email))
		return existing.ID, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.Create(ctx, user); err != nil {
		return "", err
	}

	log.Info("seeded user", slog.String("email", email), slog.String("role", role))
	return user.ID, nil
}

// sampleMotors returns the starter catalog.
func sampleMotors(ownerID string) []domain.Motor {
	now := time.Now().UTC()

	newMotor := func(name, brand, category, description string, price int64, stock, power, weight int) domain.Motor {
		return domain.Motor{
			ID:           uuid.New().String(),
			UserID:       ownerID,
			Name:         name,
			Image:        "/images/sample.jpg",
			Brand:        brand,
			Category:     category,
			Description:  description,
			Price:        price,
			CountInStock: stock,
			Power:        power,
			Weight:       weight,
			Dimensions:   domain.Dimensions{Length: 400, Width: 300, Height: 350},
			Manufacturer: brand,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	m1 := newMotor("AIR-340 Three-Phase Induction Motor", "Siemens", domain.CategoryElectric,
		"Heavy-duty three-phase induction motor for industrial drives.", 2_150_00, 12, 250, 480)
	m1.Voltage = 380
	m1.RPM = 1480
	m1.Efficiency = 94
	m1.FuelType = domain.FuelNotApplicable

	m2 := newMotor("D-245 Turbo Diesel Engine", "MMZ", domain.CategoryDiesel,
		"Four-cylinder turbocharged diesel engine for tractors and light trucks.", 4_800_00, 5, 122, 430)
	m2.RPM = 2200
	m2.FuelType = domain.FuelDiesel

	m3 := newMotor("ZMZ-409 Gasoline Engine", "ZMZ", domain.CategoryGasoline,
		"Inline-four gasoline engine, a common fit for off-road vehicles.", 3_200_00, 8, 143, 190)
	m3.RPM = 4600
	m3.FuelType = domain.FuelGasoline

	m4 := newMotor("HM-63 Hydraulic Motor", "Bosch Rexroth", domain.CategoryHydraulic,
		"Axial piston hydraulic motor for mobile machinery.", 1_750_00, 20, 85, 34)
	m4.FuelType = domain.FuelNotApplicable

	m5 := newMotor("PM-12 Pneumatic Vane Motor", "Atlas Copco", domain.CategoryPneumatic,
		"Compact vane air motor for assembly tools.", 640_00, 35, 2, 4)
	m5.FuelType = domain.FuelNotApplicable

	m6 := newMotor("EV-180 Traction Motor", "Nidec", domain.CategoryElectric,
		"Liquid-cooled permanent magnet traction motor for electric vehicles.", 6_900_00, 3, 241, 87)
	m6.Voltage = 400
	m6.RPM = 12000
	m6.Efficiency = 96
	m6.FuelType = domain.FuelNotApplicable

	return []domain.Motor{m1, m2, m3, m4, m5, m6}
}
