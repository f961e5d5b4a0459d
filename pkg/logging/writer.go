package logging

import (
	"bytes"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerWriter struct {
	mu     sync.Mutex
	logger *zap.Logger
	level  zapcore.Level
	buf    bytes.Buffer
}

// NewLoggerWriter adapts a logger to an io.Writer, logging each complete line written to it.
// Call Close (or Flush) to emit a trailing partial line.
func NewLoggerWriter(logger *zap.Logger, level zapcore.Level) io.WriteCloser {
	return &loggerWriter{logger: logger, level: level}
}

func (w *loggerWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := w.buf.Next(idx + 1)
		w.emit(line[:idx])
	}
	return len(p), nil
}

func (w *loggerWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	if ce := w.logger.Check(w.level, string(line)); ce != nil {
		ce.Write()
	}
}

func (w *loggerWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
	return nil
}
