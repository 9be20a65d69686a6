package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/texgest/internal/document"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_Process(t *testing.T) {
	src := []byte("\\begin{document}\\section{Intro}\\label{sec:intro}\\input{body}\\end{document}")
	job := NewJob("main.tex", src, map[string][]byte{"body.tex": []byte("Body text.")})

	NewWorker(document.Options{}, discard()).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Errors)
	}
	if snap.Result == nil || snap.Result.Labels != 1 {
		t.Fatalf("unexpected result %+v", snap.Result)
	}
	if doc := job.Document(); !strings.Contains(doc.Latex(), "Body text.") {
		t.Errorf("included text missing from %q", doc.Latex())
	}
}

func TestWorker_ProcessFailure(t *testing.T) {
	job := NewJob("main.tex", []byte("\\input{missing}"), nil)
	NewWorker(document.Options{}, discard()).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], "missing.tex") {
		t.Errorf("unexpected errors %v", snap.Errors)
	}
}

func TestWorker_ProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewJob("main.tex", []byte("x"), nil)
	NewWorker(document.Options{}, discard()).Process(ctx, job)
	if snap := job.Snapshot(); snap.Status != StatusFailed || snap.Phase != "cancelled" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
