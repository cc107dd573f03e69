package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	SQLitePath string
}

func (c Config) DSN() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "", DriverPostgres:
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.PostgresUser,
			c.PostgresPassword,
			c.PostgresHost,
			c.PostgresPort,
			c.PostgresName,
		), nil
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return "file::memory:?cache=shared", nil
		}
		return c.SQLitePath, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q (expected postgres|sqlite)", c.Driver)
	}
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	if strings.EqualFold(strings.TrimSpace(cfg.Driver), DriverSQLite) {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driverName(cfg.Driver), err)
	}
	if err := AutoMigrateAll(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	serviceLog.Info("Database ready", "driver", driverName(cfg.Driver))
	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func driverName(d string) string {
	if strings.EqualFold(strings.TrimSpace(d), DriverSQLite) {
		return DriverSQLite
	}
	return DriverPostgres
}
