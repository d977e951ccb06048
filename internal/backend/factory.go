package backend

import (
	"context"
	"fmt"
	"log/slog"

	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/storage"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/store/file"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(applog.FieldComponent, applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil

	case FileBackend:
		dir := config.DataDirectory
		if dir == "" {
			dir = "data"
		}
		st, err := file.New(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file backend: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", dir)
		return &BackendResult{Backend: st}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
