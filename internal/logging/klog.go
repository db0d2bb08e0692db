// Package logging routes guardar diagnostics to klog.
package logging

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/201flaviosilva/guardar"
)

// DebugVerbosity is the klog -v level at which Debug messages are emitted.
const DebugVerbosity klog.Level = 4

// Klog returns a guardar.Logger writing through klog with the given prefix,
// for example "[Storage]".
func Klog(prefix string) guardar.Logger {
	return guardar.LogFunc(func(_ context.Context, level guardar.Level, msg string) {
		if prefix != "" {
			msg = prefix + " " + msg
		}
		switch level {
		case guardar.LevelDebug:
			klog.V(DebugVerbosity).InfoDepth(1, msg)
		case guardar.LevelInfo:
			klog.InfoDepth(1, msg)
		case guardar.LevelWarn:
			klog.WarningDepth(1, msg)
		default:
			klog.ErrorDepth(1, msg)
		}
	})
}
