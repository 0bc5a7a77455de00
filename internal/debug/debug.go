package debug

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (captures, album open/close)
	LevelLive    = 2 // Live info (pages, input actions, messages)
	LevelVerbose = 3 // Verbose (frustum tests, file operations)
	LevelTrace   = 4 // Trace (input driver, very low level)
)

var (
	level  int
	output io.Writer = os.Stdout
	logger *zap.SugaredLogger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (photo saved, album state)
// 2 = live info (paging, actions, messages)
// 3 = verbose (detections, file operations)
// 4 = trace (input driver, very low level)
func Init(debugLevel int) {
	level = debugLevel
	build()
}

// SetOutput redirects log output, e.g. to tee it to the web status stream.
func SetOutput(w io.Writer) {
	output = w
	build()
}

func build() {
	if level <= LevelOff {
		logger = nil
		return
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	enc.EncodeCaller = nil
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(output)), zapcore.DebugLevel)
	logger = zap.New(core).Named("FloatCam").Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Infof(format, args...)
	}
}

// Infow prints a level 1 message with structured key/value pairs.
func Infow(msg string, keysAndValues ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Infow(msg, keysAndValues...)
	}
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	if level >= LevelInfo && logger != nil {
		logger.Info("═══════════════════════════════════════")
		logger.Infof("  %s", title)
		logger.Info("═══════════════════════════════════════")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Infof("[LIVE] "+format, args...)
	}
}

// Page prints an album page change (level 2). A zero capturedAt is omitted.
func Page(index, total int, path string, capturedAt time.Time) {
	if level < LevelLive || logger == nil {
		return
	}
	kv := []interface{}{"position", index + 1, "total", total, "path", path}
	if !capturedAt.IsZero() {
		kv = append(kv, "captured", capturedAt.Format(time.DateTime))
	}
	logger.Infow("[LIVE] Showing photo", kv...)
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] "+format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] %s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Debugf("  %s", name)
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] Step %d: %s", num, description)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Infof("  %s = %v", name, value)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace).
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Debugf("[TRACE] "+format, args...)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Errorw("error", zap.Error(err))
	}
}
