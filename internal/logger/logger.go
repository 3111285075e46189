package logger

import (
	"go.uber.org/zap"
)

// New builds a JSON production logger writing at level ("debug", "info",
// "warn", "error").
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = lvl
	// stdout is reserved for command output
	config.OutputPaths = []string{"stderr"}
	return config.Build(zap.AddCaller())
}
