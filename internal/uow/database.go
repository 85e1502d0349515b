package uow

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"market/internal/config"
	"market/internal/models"
	"market/internal/repositories"
)

// OpenDatabase connects to the relational store named by driver and migrates
// the marketplace schema. Duplicate-key and foreign key errors are translated
// so that the repositories can report repositories.ErrAlreadyExists and
// repositories.ErrInvalidReference.
func OpenDatabase(driver, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(withForeignKeys(dsn))
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// withForeignKeys turns on SQLite foreign key enforcement, which is off by
// default, for every connection opened with dsn.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// NewFactory returns the unit of work factory selected by cfg, and a function
// releasing its resources.
func NewFactory(cfg config.Config) (Factory, func() error, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Println("Using in-memory store, data will not survive a restart")
		return NewMemoryFactory(repositories.NewMemoryStore()), func() error { return nil }, nil
	}

	db, err := OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, logger.Warn)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	return NewGORMFactory(db), sqlDB.Close, nil
}
