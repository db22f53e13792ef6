package testhelpers

import (
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

// NewTestLogger returns a logger that discards output.
func NewTestLogger() infralogger.Logger {
	return infralogger.NewNop()
}
