// internal/util/log_data.go
package util

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogData accumulates fields and timings for a single operation and emits them
// as one log entry when the operation ends.
type LogData struct {
	name      string
	startTime time.Time
	dataItems logrus.Fields
	logger    *logrus.Logger
}

// NewLogData starts tracking the operation called name.
func NewLogData(logger *logrus.Logger, name string) *LogData {
	return &LogData{
		name:      name,
		startTime: time.Now(),
		dataItems: logrus.Fields{},
		logger:    logger,
	}
}

// AddData attaches a field to the final entry.
func (l *LogData) AddData(key string, value interface{}) {
	l.dataItems[key] = value
}

// Log returns an entry carrying all collected fields and the elapsed time.
func (l *LogData) Log() *logrus.Entry {
	return l.logger.
		WithFields(l.dataItems).
		WithField("duration_ms", time.Since(l.startTime).Milliseconds())
}

// Done emits <name>.Complete, or <name>.Error when err is non-nil. Expected
// business failures are logged at warn level.
func (l *LogData) Done(err error) {
	if err == nil {
		l.Log().Infof("%s.Complete", l.name)
		return
	}
	entry := l.Log().WithError(err)
	if IsExpected(err) {
		entry.Warnf("%s.Error", l.name)
		return
	}
	entry.Errorf("%s.Error", l.name)
}

// IsExpected reports whether err is one of the business rule failures that
// the presentation layer turns into a user message.
func IsExpected(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrInvalidCredentials,
		ErrInsufficientFunds,
		ErrNoActiveSession,
		ErrDuplicatePIN,
	} {
		if IsError(err, target) {
			return true
		}
	}
	return false
}
