package storage

import "github.com/sirupsen/logrus"

// defaultLogger returns l, or a fresh no-frills logrus.Logger if l is nil.
// Adapters hold their own logger rather than a shared package var so that
// two adapters in the same process can be configured independently.
func defaultLogger(l *logrus.Logger) *logrus.Logger {
	if l != nil {
		return l
	}
	return logrus.New()
}
