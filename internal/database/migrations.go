package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/webservertaskmanager/task-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes AutoMigrate cannot infer from tags.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		// Scoped task lookups and the per-author listing order.
		{&models.Task{}, "idx_tasks_author_id_id", "author_id, id"},
		{&models.Task{}, "idx_tasks_author_id_created_at", "author_id, created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to resolve table for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", stmt.Schema.Table).Msg("created index")
	}

	return nil
}
