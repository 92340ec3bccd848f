package zk

import (
	"io"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("module", "zk").Logger()

// SetLogger routes setup progress and gnark's own compile and prove logs to l.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("module", "zk").Logger()
	gnarklogger.Set(logger)
}

// SilenceGnark disables gnark's internal logging, which is noisy at debug
// level during compile and prove.
func SilenceGnark() {
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
}
