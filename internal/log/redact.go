package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces redacted values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"api_key":             true,
	"apikey":              true,
	"password":            true,
	"secret":              true,
	"token":               true,
}

// sensitiveKeywords mask any key containing them.
var sensitiveKeywords = []string{"password", "secret", "token", "auth", "cookie", "credential"}

// sensitiveValues are value shapes masked regardless of key.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// sensitiveParams are query parameters masked inside URL values.
var sensitiveParams = []string{"key", "api_key", "apikey", "token", "access_token", "sig", "signature", "password"}

// RedactingHandler wraps an slog.Handler and masks sensitive attributes.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps handler. A nil handler wraps the default
// logger's handler.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redact(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		for _, p := range sensitiveValues {
			if p.MatchString(v) {
				return slog.String(a.Key, MaskValue)
			}
		}
		if masked, ok := redactURL(v); ok {
			return slog.String(a.Key, masked)
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// redactURL masks credentials in an http(s) URL: the userinfo password
// and sensitive query parameters.
func redactURL(s string) (string, bool) {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}

	changed := false
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}
	q := u.Query()
	for _, p := range sensitiveParams {
		for name := range q {
			if strings.EqualFold(name, p) {
				q.Set(name, MaskValue)
				changed = true
			}
		}
	}
	if !changed {
		return "", false
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// Options configures NewLogger.
type Options struct {
	// Verbose sets the level to Debug instead of Warn.
	Verbose bool
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// NewLogger creates a redacting logger writing to w.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, handlerOpts)
	} else {
		base = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewRedactingHandler(base))
}
