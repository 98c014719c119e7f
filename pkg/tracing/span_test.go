package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "iteration", "run-42")
	_, load := StartChildSpan(ctx, "load")
	load.SetAttr("categories", 12)
	load.End()
	root.End()

	if len(root.Children) != 1 || root.Children[0] != load {
		t.Fatalf("children = %v", root.Children)
	}
	if load.TraceID != "run-42" {
		t.Errorf("child trace id = %q, want run-42", load.TraceID)
	}
	if SpanFromContext(ctx) != root {
		t.Error("context should carry the root span")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root.Log(logger)
	out := buf.String()
	if !strings.Contains(out, "span=iteration") || !strings.Contains(out, "span=load") {
		t.Errorf("log output missing spans:\n%s", out)
	}
	if !strings.Contains(out, "categories=12") {
		t.Errorf("log output missing attrs:\n%s", out)
	}
}

func TestChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	if span.TraceID != "" {
		t.Errorf("orphan trace id = %q, want empty", span.TraceID)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	_, span := StartSpan(context.Background(), "iteration", "run-1")
	span.End()
	first := span.Duration
	span.End()
	if span.Duration != first {
		t.Errorf("second End changed duration from %v to %v", first, span.Duration)
	}
}

func TestLogMarksUnfinishedSpans(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "iteration", "run-1")
	StartChildSpan(ctx, "classify")
	root.End()

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2:\n%s", len(lines), buf.String())
	}
	if strings.Contains(lines[0], "unfinished") {
		t.Errorf("ended root marked unfinished: %s", lines[0])
	}
	if !strings.Contains(lines[1], "unfinished=true") {
		t.Errorf("open child not marked unfinished: %s", lines[1])
	}
}
