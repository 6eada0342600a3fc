// logger.go - the core's only outward error-reporting channel (see §7:
// software-visible misuse is logged and execution continues).

package lockstep

// Logger receives the core's diagnostic messages. It is never used for
// control flow - every call site that reaches for it also returns a
// benign value (0, or the last latched value) and carries on.
type Logger interface {
	Warnf(format string, args ...any)
}

// discardLogger silently drops every message. Used when a Machine is
// constructed without an explicit Logger.
type discardLogger struct{}

func (discardLogger) Warnf(string, ...any) {}

// logFunc adapts a plain function to the Logger interface, useful for
// wiring a front-end's kdebug-style sink or a test's *testing.T.Logf.
type logFunc func(format string, args ...any)

func (f logFunc) Warnf(format string, args ...any) { f(format, args...) }

// LoggerFunc wraps a function value as a Logger.
func LoggerFunc(f func(format string, args ...any)) Logger {
	return logFunc(f)
}

func warnUnrecognised(l Logger, kind string, value uint32) {
	l.Warnf("unrecognised %s (0x%X)", kind, value)
}

func warnOpenBus(l Logger, detail string) {
	l.Warnf("open-bus access: %s", detail)
}
