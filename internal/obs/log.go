package obs

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerMu sync.Mutex
	logger   = logrus.New()
)

// LogOptions controls the shared logger.
type LogOptions struct {
	Level  string // trace|debug|info|warning|error|fatal
	Format string // text|json
}

// InitLogger configures the shared logger. Called once at startup; tests may
// call it again to redirect output.
func InitLogger(opts LogOptions) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	switch opts.Level {
	case "trace":
		logger.SetLevel(logrus.TraceLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warning", "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logger.SetLevel(logrus.FatalLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if opts.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Logger returns the shared structured logger used across the service.
func Logger() *logrus.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return logger
}
