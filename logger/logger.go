package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the service and component it logs for.
type Logger struct {
	zl        zerolog.Logger
	service   string
	component string
}

// Init configures the global logger.
func Init(cfg Config) *Logger {
	cfg.ApplyDefaults()
	l := New(&cfg, cfg.Service)
	SetGlobalLogger(l)
	return l
}

// New builds a logger from cfg writing to the configured output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter builds a logger that writes to w instead of the configured output.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if cfg.IsConsole() {
		zl = zerolog.New(consoleWriter(w, cfg.NoColor, service))
	} else {
		zl = zerolog.New(w)
	}
	zl = zl.Level(level)

	zc := zl.With()
	if cfg.Timestamp || cfg.IsConsole() {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	if service != "" && !cfg.IsConsole() {
		zc = zc.Str(FieldService, service)
	}

	return &Logger{zl: zc.Logger(), service: service}
}

// NewDefault returns an info-level console logger on stdout.
func NewDefault(service string) *Logger {
	cfg := &Config{Level: "info", Format: FormatConsole, Output: "stdout", Timestamp: true}
	return New(cfg, service)
}

// NewFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT and LOG_NO_COLOR.
func NewFromEnv(service string) *Logger {
	cfg := &Config{
		Level:     envOr("LOG_LEVEL", "info"),
		Format:    envOr("LOG_FORMAT", FormatConsole),
		Output:    envOr("LOG_OUTPUT", "stdout"),
		NoColor:   envOr("LOG_NO_COLOR", "false") == "true",
		Timestamp: true,
	}
	return New(cfg, service)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Service returns the service name the logger was built for.
func (l *Logger) Service() string { return l.service }

// Component returns the component tag, if any.
func (l *Logger) Component() string { return l.component }

// Zerolog exposes the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		zl:        l.zl.With().Str(FieldComponent, name).Logger(),
		service:   l.service,
		component: name,
	}
}

// WithFields returns a logger carrying the given fields on every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.zl.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{zl: zc.Logger(), service: l.service, component: l.component}
}

// WithError returns a logger carrying err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger(), service: l.service, component: l.component}
}

// WithContext adds the request id stored in ctx, if present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return l
	}
	return &Logger{
		zl:        l.zl.With().Str(FieldRequestID, id).Logger(),
		service:   l.service,
		component: l.component,
	}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Fatal(), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if ev == nil {
		return
	}
	for _, fm := range fields {
		for k, v := range fm {
			if err, ok := v.(error); ok {
				ev = ev.AnErr(k, err)
				continue
			}
			ev = ev.Interface(k, v)
		}
	}
	ev.Msg(msg)
}

type ctxKey struct{}

// ContextWithRequestID stores a request id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var levelTags = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

var levelColors = map[string]string{
	"debug": "\033[36m",
	"info":  "\033[32m",
	"warn":  "\033[33m",
	"error": "\033[31m",
	"fatal": "\033[35m",
}

func consoleWriter(w io.Writer, noColor bool, service string) zerolog.ConsoleWriter {
	prefix := ""
	if len(service) >= 3 {
		prefix = "[" + strings.ToUpper(service[:3]) + "]"
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			lvl := fmt.Sprintf("%s", i)
			tag, ok := levelTags[lvl]
			if !ok {
				tag = strings.ToUpper(lvl)
			}
			tag = "[" + tag + "]"
			if c, ok := levelColors[lvl]; ok && !noColor {
				tag = c + tag + "\033[0m"
			}
			return prefix + tag
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
	}
}
