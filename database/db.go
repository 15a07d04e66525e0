// Package database owns the gorm connection, schema migration and seed data.
package database

import (
	"errors"
	"log"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// searchColumnDDL adds the weighted full-text document used by card search.
// Only Postgres has tsvector; SQLite searches fall back to LIKE.
var searchColumnDDL = []string{
	`ALTER TABLE cards ADD COLUMN IF NOT EXISTS document_with_weights tsvector
		GENERATED ALWAYS AS (
			setweight(to_tsvector('english', coalesce(name, '')), 'A') ||
			setweight(to_tsvector('english', coalesce(rarity, '')), 'B')
		) STORED`,
	`CREATE INDEX IF NOT EXISTS idx_cards_document_with_weights ON cards USING GIN (document_with_weights)`,
}

func initModels() error {
	models := []any{
		&model.Role{},
		&model.User{},
		&model.Series{},
		&model.Set{},
		&model.CardType{},
		&model.Card{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	if IsPostgres() {
		for _, stmt := range searchColumnDDL {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func initRoles() error {
	for _, name := range []string{model.RoleUser, model.RoleAdmin} {
		role := model.Role{Name: name}
		if err := db.Where(model.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

func openDialector(c *config.DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case config.DatabaseTypePostgreSQL:
		return postgres.Open(c.GetDSN()), nil
	case config.DatabaseTypeSQLite:
		if err := c.EnsureDirectoryExists(); err != nil {
			return nil, err
		}
		dsn := c.GetDSN() + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"
		return sqlite.Open(dsn), nil
	}
	return nil, errors.New("unsupported database type: " + string(c.Type))
}

// InitDB opens the configured database, migrates the schema and seeds roles.
func InitDB(c *config.DatabaseConfig) error {
	if err := c.ValidateConfig(); err != nil {
		return err
	}
	dialector, err := openDialector(c)
	if err != nil {
		return err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	gc := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	db, err = gorm.Open(dialector, gc)
	if err != nil {
		return err
	}

	if c.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if _, err = sqlDB.Exec("PRAGMA temp_store = MEMORY;"); err != nil {
			return err
		}
	}

	if err := initModels(); err != nil {
		return err
	}
	return initRoles()
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	db = nil
	return err
}

func GetDB() *gorm.DB {
	return db
}

// IsPostgres reports whether the open connection is a Postgres one.
func IsPostgres() bool {
	return db != nil && db.Dialector.Name() == "postgres"
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
