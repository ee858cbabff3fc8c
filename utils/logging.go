package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

func NewLogger(format string) *slog.Logger {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{})
	default:
		handler = LocalDevHandlerOptions{UseColor: true}.NewLocalDevHandler(os.Stderr)
	}
	return slog.New(handler)
}

// LocalDevHandler prints compact, optionally colored lines for local
// development. Attributes are rendered by an inner text handler.
type LocalDevHandler struct {
	opts  LocalDevHandlerOptions
	attrs []slog.Attr
	group string

	mu *sync.Mutex
	w  io.Writer
}

type LocalDevHandlerOptions struct {
	SlogOpts slog.HandlerOptions
	UseColor bool
}

func NewLocalDevHandler(w io.Writer) *LocalDevHandler {
	return LocalDevHandlerOptions{}.NewLocalDevHandler(w)
}

func (opts LocalDevHandlerOptions) NewLocalDevHandler(w io.Writer) *LocalDevHandler {
	return &LocalDevHandler{opts: opts, w: w, mu: &sync.Mutex{}}
}

func (h *LocalDevHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.SlogOpts.Level != nil {
		minLevel = h.opts.SlogOpts.Level.Level()
	}
	return level >= minLevel
}

func (h *LocalDevHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString(r.Time.Format(time.RFC3339))
	buf.WriteString(" ")

	level := r.Level.String()
	if h.opts.UseColor {
		level = addColorToLevel(level)
	}
	buf.WriteString(level)
	buf.WriteString(" ")

	buf.WriteString(r.Message)
	buf.WriteString(" ")

	var attrBuf bytes.Buffer
	attrHandler := slog.NewTextHandler(&attrBuf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "time" || a.Key == "level" || a.Key == "msg" {
				return slog.Attr{}
			}
			return a
		},
	})
	var rebuilt slog.Handler = attrHandler
	if h.group != "" {
		rebuilt = rebuilt.WithGroup(h.group)
	}
	if len(h.attrs) > 0 {
		rebuilt = rebuilt.WithAttrs(h.attrs)
	}
	if err := rebuilt.Handle(ctx, r.Clone()); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(attrBuf.Bytes(), "\n"))
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *LocalDevHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *LocalDevHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = name
	return &next
}

const (
	colorRed    = 31
	colorYellow = 33
	colorBlue   = 34
	colorGray   = 37
)

func colorize(colorCode int, v string) string {
	return fmt.Sprintf("\033[%sm%s\033[0m", fmt.Sprint(colorCode), v)
}

func addColorToLevel(level string) string {
	switch level {
	case "DEBUG":
		return colorize(colorGray, level)
	case "INFO":
		return colorize(colorBlue, level)
	case "WARN":
		return colorize(colorYellow, level)
	case "ERROR":
		return colorize(colorRed, level)
	default:
		return level
	}
}
