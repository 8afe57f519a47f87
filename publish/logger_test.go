package publish

import "fmt"

// testLogger collects log lines so tests can assert on warnings without
// touching the real console/file logger.
type testLogger struct {
	infos    []string
	warnings []string
	errors   []string
}

func (l *testLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *testLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *testLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}
