package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	prettyconsole "github.com/thessem/zap-prettyconsole"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LogOpts configures the process logger for both the CLI and the server.
type LogOpts struct {
	Verbose bool
	// Color is one of auto, always/on or never/off.
	Color string
	// Encoding is console (the default), pretty_console or json.
	Encoding string
	// CategoryLogsDir, when set, additionally writes each top-level logger name to its own file.
	CategoryLogsDir string
	// Fs holds the category log files. Defaults to the OS filesystem.
	Fs            afero.Fs
	DefaultLevels map[string]zapcore.Level
}

func (opts LogOpts) useColor(w io.Writer) bool {
	switch opts.Color {
	case "always", "on":
		return true
	case "never", "off":
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func (opts LogOpts) encoder(w io.Writer) zapcore.Encoder {
	switch opts.Encoding {
	case "json":
		if opts.Verbose {
			return zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
		}
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	case "console", "pretty_console", "":
		color := opts.useColor(w)
		if color {
			cfg := prettyconsole.NewEncoderConfig()
			cfg.EncodeTime = TimeOffsetFormatter(time.Now(), true)
			return prettyconsole.NewEncoder(cfg)
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = TimeOffsetFormatter(time.Now(), false)
		return zapcore.NewConsoleEncoder(cfg)

	default:
		panic(fmt.Errorf("unknown encoding %q", opts.Encoding))
	}
}

// levels are the per-logger levels: LOG_LEVEL when set, otherwise DefaultLevels.
func (opts LogOpts) levels() map[string]zapcore.Level {
	if levels, ok := os.LookupEnv("LOG_LEVEL"); ok {
		return ParseLevels(levels)
	}
	return opts.DefaultLevels
}

func (opts LogOpts) categoryCore() zapcore.Core {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if opts.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return NewCategoryWriter(enc, fs, opts.CategoryLogsDir)
}

func (opts LogOpts) NewCore(w io.Writer) zapcore.Core {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	core := zapcore.NewCore(opts.encoder(w), zapcore.AddSync(w), level)
	if levels := opts.levels(); len(levels) > 0 {
		core = NewEntryLeveller(core, levels)
	}
	if opts.CategoryLogsDir != "" {
		core = zapcore.NewTee(core, opts.categoryCore())
	}
	return core
}

// NewLogger logs to stderr.
func (opts LogOpts) NewLogger() *zap.Logger {
	return zap.New(opts.NewCore(os.Stderr))
}

// TimeOffsetFormatter formats entry times as the offset from start. It suits short-lived CLI runs;
// long-running servers should use an absolute time encoder.
func TimeOffsetFormatter(start time.Time, color bool) zapcore.TimeEncoder {
	colStart, colEnd := "\x1b[90m", "\x1b[0m"
	if !color {
		colStart, colEnd = "", ""
	}
	return func(t time.Time, e zapcore.PrimitiveArrayEncoder) {
		diff := t.Sub(start)
		switch {
		case diff < time.Second:
			e.AppendString(fmt.Sprintf(" %s%3dms%s", colStart, diff.Milliseconds(), colEnd))
		case diff < 5*time.Minute:
			e.AppendString(fmt.Sprintf("%s%5.1fs%s", colStart, diff.Seconds(), colEnd))
		default:
			e.AppendString(fmt.Sprintf("%s%5.1fm%s", colStart, diff.Minutes(), colEnd))
		}
	}
}
