package types

// Logger is the logging collaborator injected into a Dispatcher. It is
// deliberately narrow: the dispatcher only ever needs leveled, formatted
// output, never structured fields or sinks of its own.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warn(v ...interface{})
	Warnf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})

	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	// ToggleDebug enables or disables Debug/Debugf output and returns the
	// new value.
	ToggleDebug(value bool) bool
}
