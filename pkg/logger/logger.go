package logger

// Printf-style helpers for startup code in cmd/. Request-path code should use
// GetLogger() and structured fields instead.

// Info logs an info line
func Info(format string, args ...interface{}) {
	zlog.Info().Msgf(format, args...)
}

// Warn logs a warning line
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msgf(format, args...)
}

// Error logs an error line
func Error(format string, args ...interface{}) {
	zlog.Error().Msgf(format, args...)
}

// Fatal logs and exits the process
func Fatal(format string, args ...interface{}) {
	zlog.Fatal().Msgf(format, args...)
}
