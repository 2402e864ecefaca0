// SPDX-License-Identifier: MIT
package transport

import (
	applog "spectrum/internal/log"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a summary of the received data.
func (lt *LoggingTransport) Send(data any) error {
	switch f := data.(type) {
	case *BandFrame:
		applog.Debugf("LoggingTransport: Frame %d, %d bands, values %v", f.Sequence, len(f.Values), f.Values)
	default:
		applog.Debugf("LoggingTransport: Received (%T): %+v", data, data)
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LoggingTransport: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
