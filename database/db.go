package database

import (
	"fmt"
	"log"

	"suorganizer/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Init opens the configured database, migrates it and makes it available
// through GetDB.
func Init(cfg *config.Config) error {
	conn, err := Open(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.Debug)
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return err
	}
	db = conn
	return nil
}

func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return conn, nil
}

// Migrate creates or updates the schema and makes sure every permission
// codename exists.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&Permission{},
		&Group{},
		&User{},
		&Profile{},
		&Tag{},
		&Startup{},
		&NewsLink{},
		&Post{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	for _, perm := range AllPermissions {
		perm := perm
		if err := conn.Where(Permission{Codename: perm.Codename}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", perm.Codename, err)
		}
	}

	return seedContributors(conn)
}

func seedContributors(conn *gorm.DB) error {
	var group Group
	if err := conn.Where(Group{Name: ContributorsGroup}).FirstOrCreate(&group).Error; err != nil {
		return fmt.Errorf("seed group %s: %w", ContributorsGroup, err)
	}

	var perms []Permission
	if err := conn.Where("codename IN ?", contributorPermissions).Find(&perms).Error; err != nil {
		return fmt.Errorf("load contributor permissions: %w", err)
	}
	if err := conn.Model(&group).Association("Permissions").Replace(perms); err != nil {
		return fmt.Errorf("seed group %s permissions: %w", ContributorsGroup, err)
	}
	return nil
}

func GetDB() *gorm.DB {
	if db == nil {
		log.Fatalf("Database used before database.Init was called")
	}
	return db
}

func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get database handle: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
	db = nil
}
