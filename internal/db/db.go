package db

import (
	"errors"
	"fmt"
	"os"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/librairie/internal/models"
)

// Connect opens the PostgreSQL database with a few retries so the app
// survives the database container coming up slightly later.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < 10; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// Migrate brings the schema up to date. With useSQL it runs the files in
// ./migrations through golang-migrate; otherwise AutoMigrate covers the
// dev loop.
func Migrate(conn *gorm.DB, dsn string, useSQL bool) error {
	if useSQL {
		m, err := migrate.New("file://migrations", NormalizeDSN(dsn))
		if err != nil {
			return err
		}
		if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	}
	return AutoMigrate(conn)
}

// AutoMigrate creates/updates tables straight from the models. The tests
// use it against in-memory sqlite.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range []any{
		&models.User{}, &models.Author{}, &models.Category{}, &models.Book{},
	} {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// Seed creates the default administrator (ADMIN_EMAIL/ADMIN_PASSWORD,
// skipped when unset) and the base category set. Idempotent.
func Seed(conn *gorm.DB) error {
	baseCategories := []string{"Roman", "Policier", "Science-fiction", "Histoire", "Jeunesse"}
	for _, name := range baseCategories {
		var existing models.Category
		err := conn.Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := conn.Create(&models.Category{Name: name}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	email := os.Getenv("ADMIN_EMAIL")
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		return nil
	}
	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return conn.Create(&models.User{Email: email, Password: string(hash), Role: models.RoleAdmin}).Error
}
