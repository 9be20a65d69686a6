package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/texgest/internal/document"
	"github.com/dgallion1/texgest/internal/include"
	"github.com/dgallion1/texgest/internal/texerr"
)

// Worker builds documents for queued jobs.
type Worker struct {
	opts document.Options
	log  *slog.Logger
}

func NewWorker(opts document.Options, log *slog.Logger) *Worker {
	return &Worker{opts: opts, log: log}
}

// Process builds the job's document from its in-memory files.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	job.SetStatus(StatusBuilding, "building")
	files := make(map[string][]byte)
	for name, data := range job.Files() {
		files[filepath.Clean(name)] = data
	}

	opts := w.opts
	opts.ReadFile = include.MapReader(files)
	opts.Logger = log
	opts.Build.Logger = log

	doc, err := document.ParseFile(filepath.Clean(job.Filename), opts)
	if err != nil {
		log.Error("build failed", "error", err, "kind", errorKind(err))
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "building")
		return
	}

	job.SetDocument(doc)
	log.Info("build complete", "nodes", doc.Tree.Len(), "labels", len(doc.Xrefs))
	job.SetStatus(StatusCompleted, "done")
}

func errorKind(err error) string {
	if kind := texerr.Kind(err); kind != nil {
		return kind.Error()
	}
	return "other"
}
