package backend

import (
	"fmt"

	"fatura/internal/config"
	applog "fatura/internal/log"
	"fatura/internal/storage"
	"fatura/internal/store/memory"
)

// Factory builds record stores from application configuration.
type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateStore constructs the store named by cfg.DataBackend.
func (f *Factory) CreateStore(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid data backend: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		return f.createSQLite(cfg.SQLiteDBPath)
	default:
		return f.createMemory()
	}
}

func (f *Factory) createSQLite(dbPath string) (*Result, error) {
	st, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("Initialized sqlite store", "db_path", dbPath)
	return &Result{Store: st, Cleanup: st.Close}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	f.logger.Info("Initialized in-memory store")
	return &Result{Store: memory.New()}, nil
}
