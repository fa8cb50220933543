package app

import (
	"io"
	"log/slog"

	"github.com/buildweld/fetchgraph/internal/hclcfg"
	"github.com/buildweld/fetchgraph/internal/keyfile"
	"github.com/buildweld/fetchgraph/internal/optimizer"
)

// keyCacheSize bounds the key file cache; one batch rarely touches more
// than a handful of signing keys.
const keyCacheSize = 64

// App encapsulates the compiler's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	loader *hclcfg.Loader
	keys   keyfile.Reader
	opt    *optimizer.Recorder
}

// NewApp constructs a fully initialized App. Task JSON goes to outW;
// logs go to logW so emitted output stays machine-readable.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	keys, err := keyfile.NewStore(cfg.KeysPath, keyCacheSize)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:   outW,
		logger: logger,
		loader: hclcfg.NewLoader(),
		keys:   keys,
		opt:    optimizer.NewRecorder(),
	}, nil
}

// Optimizer returns the cache registration recorder. This is primarily
// for testing.
func (a *App) Optimizer() *optimizer.Recorder {
	return a.opt
}
