package logging

import "github.com/sirupsen/logrus"

// TestSuite bundles a logrus logger for table-driven test suites:
// suppressed to FatalLevel by default so passing tests stay quiet, raised
// with WithLogLevel when a failure needs the diagnostic trail.
type TestSuite struct {
	Logger *logrus.Logger
}

// NewTestSuite returns a TestSuite whose logger is suppressed by default.
func NewTestSuite() *TestSuite {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return &TestSuite{Logger: logger}
}

// WithLogLevel raises the suite's logger to level.
func (s *TestSuite) WithLogLevel(level logrus.Level) *TestSuite {
	s.Logger.SetLevel(level)
	return s
}
