package types

// Logger is the minimal leveled-logging contract every actor in this module
// is constructed with. definition.DefaultLogger is the stdlib-backed
// implementation; callers may supply their own.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Panic(v ...interface{})
	Panicf(format string, v ...interface{})

	// ToggleDebug turns debug-level logging on or off and returns the new
	// value, matching the teacher's logger so tests can silence chatter.
	ToggleDebug(value bool) bool
}
