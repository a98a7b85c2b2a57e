package logger

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init configures the global logger. Accepted levels: debug, info, warn,
// error, fatal. Debug level switches to a human-friendly console writer.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stdout
	if lvl == zerolog.DebugLevel {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}

func init() {
	Init("info")
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }

// Infof logs a printf-style message at info level.
func Infof(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

// Warnf logs a printf-style message at warn level.
func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// Errorf logs a printf-style message at error level.
func Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

// Fatalf logs a printf-style message and exits.
func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

// Get exposes the underlying zerolog.Logger.
func Get() zerolog.Logger {
	return log
}

// GinLogger returns a Gin middleware that logs requests through zerolog.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// GinRecovery returns a recovery middleware that logs panics through zerolog.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Msg("panic recovered")
		c.AbortWithStatus(500)
	})
}
