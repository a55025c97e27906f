package lkserver

import (
	"os"

	"github.com/DeRuina/timberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// NewLoggers builds the process log (warnings/errors about the server
// itself) and the access log (one structured entry per request, per
// SPEC_FULL.md section 3.1). When logFile is empty both write to
// stderr, console-encoded if stderr is a terminal and JSON otherwise;
// when logFile is set, both write JSON to a timberjack-rotated file.
func NewLoggers(logFile string) (log, access *zap.Logger, err error) {
	var sink zapcore.WriteSyncer
	var encoder zapcore.Encoder

	if logFile != "" {
		sink = zapcore.AddSync(&timberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		sink = zapcore.AddSync(os.Stderr)
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		if term.IsTerminal(int(os.Stderr.Fd())) {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoder = zapcore.NewConsoleEncoder(cfg)
		} else {
			encoder = zapcore.NewJSONEncoder(cfg)
		}
	}

	core := zapcore.NewCore(encoder, sink, zap.InfoLevel)
	log = zap.New(core).Named("lkserver")
	access = zap.New(core).Named("access")
	return log, access, nil
}
