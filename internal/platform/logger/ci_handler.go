package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"
)

// ciEnvVars maps CI environment variables to the attribute names stamped on
// every record.
var ciEnvVars = map[string]string{
	"GITHUB_RUN_ID":     "ci_run_id",
	"GITHUB_SHA":        "ci_commit",
	"GITHUB_REF_NAME":   "ci_branch",
	"GITHUB_WORKFLOW":   "ci_workflow",
	"GITHUB_JOB":        "ci_job",
	"GITHUB_REPOSITORY": "ci_repository",
}

// IsCI reports whether the process runs in a CI environment.
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// ciAttrs reads the CI environment once, in a stable order.
func ciAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(ciEnvVars))
	for env, name := range ciEnvVars {
		if v := os.Getenv(env); v != "" {
			attrs = append(attrs, slog.String(name, v))
		}
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs
}

// CIHandler wraps a JSON handler and stamps each record with pipeline
// metadata, the sub-second part of its timestamp and, with AddSource, the
// flattened call site. Test runs in CI use it to correlate log lines with a
// failing job.
type CIHandler struct {
	next      slog.Handler
	metadata  []slog.Attr
	addSource bool
}

// NewCIHandler creates a CIHandler writing JSON to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	var o slog.HandlerOptions
	if opts != nil {
		o = *opts
	}
	return &CIHandler{
		next:      slog.NewJSONHandler(out, &o),
		metadata:  ciAttrs(),
		addSource: o.AddSource,
	}
}

func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{next: h.next.WithAttrs(attrs), metadata: h.metadata, addSource: h.addSource}
}

func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{next: h.next.WithGroup(name), metadata: h.metadata, addSource: h.addSource}
}

func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	r := record.Clone()

	if h.addSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		r.AddAttrs(
			slog.String("source_file", frame.File),
			slog.Int("source_line", frame.Line),
			slog.String("source_func", frame.Function),
		)
	}

	r.AddAttrs(h.metadata...)
	r.AddAttrs(slog.Int64("timestamp_nano", r.Time.UnixNano()%int64(time.Second)))
	return h.next.Handle(ctx, r)
}
