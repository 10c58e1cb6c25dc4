// Package logger builds the process-wide slog logger and, when a token is
// configured, forwards error records to Rollbar.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rollbar/rollbar-go"

	"github.com/segyhp/student-fees/internal/config"
)

// New returns a logger writing to w in the configured format. Error records
// are also reported to Rollbar when ROLLBAR_TOKEN is set.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logging.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	if cfg.Logging.RollbarToken != "" {
		rollbar.SetToken(cfg.Logging.RollbarToken)
		rollbar.SetEnvironment(cfg.Server.Env)
		rollbar.SetServerHost(cfg.Server.Host)
		rollbar.SetEnabled(true)
		handler = NewRollbarHandler(handler, rollbarReporter{})
	}

	return slog.New(handler)
}

// Flush waits for queued Rollbar items to be sent
func Flush() {
	rollbar.Wait()
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Reporter receives error-level records
type Reporter interface {
	Report(level slog.Level, msg string, err error, extras map[string]interface{})
}

type rollbarReporter struct{}

func (rollbarReporter) Report(level slog.Level, msg string, err error, extras map[string]interface{}) {
	extras["message"] = msg
	args := []interface{}{msg, extras}
	if err != nil {
		args = append([]interface{}{err}, args...)
	}
	if level > slog.LevelError {
		rollbar.Critical(args...)
		return
	}
	rollbar.Error(args...)
}

// RollbarHandler wraps another handler and hands error records to a Reporter
type RollbarHandler struct {
	next     slog.Handler
	reporter Reporter
	attrs    []slog.Attr
	group    string
}

func NewRollbarHandler(next slog.Handler, reporter Reporter) *RollbarHandler {
	return &RollbarHandler{next: next, reporter: reporter}
}

func (h *RollbarHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		extras := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
		var reported error
		add := func(key string, v slog.Value) {
			if err, ok := v.Any().(error); ok && reported == nil {
				reported = err
			}
			extras[key] = v.Resolve().Any()
		}
		for _, a := range h.attrs {
			add(a.Key, a.Value)
		}
		r.Attrs(func(a slog.Attr) bool {
			add(h.key(a.Key), a.Value)
			return true
		})
		h.reporter.Report(r.Level, r.Message, reported, extras)
	}
	return h.next.Handle(ctx, r)
}

func (h *RollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &RollbarHandler{next: h.next.WithAttrs(attrs), reporter: h.reporter, attrs: merged, group: h.group}
}

func (h *RollbarHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &RollbarHandler{next: h.next.WithGroup(name), reporter: h.reporter, attrs: h.attrs, group: group}
}

func (h *RollbarHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}
