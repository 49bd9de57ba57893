// Package logger declares the logging interface the domain packages
// depend on. The zerolog implementation lives in infra/logger.
package logger

// Logger is the leveled logger threaded through the controller.
type Logger interface {
	// Debugf traces evaluation detail useful when following a decision.
	Debugf(format string, args ...any)
	// Debugw is the structured variant for multi-field records.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
