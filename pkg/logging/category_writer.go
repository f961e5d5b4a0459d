package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// CategoryWriter is a zapcore.Core that splits entries into one file per category, the first
// segment of the logger name. Entries from "pulumi.events" land in <root>/pulumi.log. Files are
// truncated the first time a category is seen by the process.
type CategoryWriter struct {
	Encoder zapcore.Encoder
	Root    string

	fs    afero.Fs
	files *sync.Map // map[string]afero.File
}

func NewCategoryWriter(enc zapcore.Encoder, fs afero.Fs, root string) *CategoryWriter {
	return &CategoryWriter{
		Encoder: enc,
		Root:    root,
		fs:      fs,
		files:   &sync.Map{},
	}
}

func (c *CategoryWriter) Enabled(zapcore.Level) bool {
	return true
}

func (c *CategoryWriter) With(fields []zapcore.Field) zapcore.Core {
	clone := &CategoryWriter{
		Encoder: c.Encoder.Clone(),
		Root:    c.Root,
		fs:      c.fs,
		files:   c.files,
	}
	for i := range fields {
		fields[i].AddTo(clone.Encoder)
	}
	return clone
}

func (c *CategoryWriter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.LoggerName == "" {
		return ce
	}
	return ce.AddCore(ent, c)
}

func category(loggerName string) (categ, rest string) {
	categ, rest, _ = strings.Cut(loggerName, ".")
	categ = strings.TrimSpace(categ)
	categ = strings.ReplaceAll(categ, string(os.PathSeparator), "_")
	return categ, rest
}

func (c *CategoryWriter) file(categ string) (afero.File, error) {
	if f, ok := c.files.Load(categ); ok {
		return f.(afero.File), nil
	}
	if err := c.fs.MkdirAll(c.Root, 0755); err != nil {
		return nil, err
	}
	// No O_TRUNC: a concurrent writer may have opened the same file. Only the stored one is truncated.
	f, err := c.fs.OpenFile(filepath.Join(c.Root, categ+".log"), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	existing, loaded := c.files.LoadOrStore(categ, f)
	if loaded {
		_ = f.Close()
		return existing.(afero.File), nil
	}
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	return f, nil
}

func (c *CategoryWriter) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	categ, rest := category(ent.LoggerName)
	if categ == "" {
		return nil
	}
	f, err := c.file(categ)
	if err != nil {
		return err
	}

	ent.LoggerName = rest
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}
	if ent.Level > zapcore.ErrorLevel {
		return f.Sync()
	}
	return nil
}

func (c *CategoryWriter) Sync() error {
	var errs error
	c.files.Range(func(_, value any) bool {
		errs = multierr.Append(errs, value.(afero.File).Sync())
		return true
	})
	return errs
}

// Close syncs and closes every category file.
func (c *CategoryWriter) Close() error {
	var errs error
	c.files.Range(func(key, value any) bool {
		errs = multierr.Append(errs, value.(afero.File).Close())
		c.files.Delete(key)
		return true
	})
	return errs
}
