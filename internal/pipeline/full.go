package pipeline

import (
	"context"
	"log/slog"

	"github.com/MKlolbullen/bhtriage/internal/ad"
	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/privesc"
)

// ProgressFunc receives the current stage name and a completion percentage.
type ProgressFunc func(stage string, pct int)

// Triage runs index building, edge extraction, classification and risk
// leveling over a set of collection documents.
type Triage struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Triage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Triage{logger: logger.With("component", "pipeline")}
}

// Run triages docs. The result depends only on docs and their order; ctx is
// checked between stages so a cancelled request stops early.
func (p *Triage) Run(ctx context.Context, docs []model.Document, progress ProgressFunc) (*model.Result, error) {
	if progress == nil {
		progress = func(string, int) {}
	}

	// 1) Index + edges
	progress("index", 10)
	g := ad.BuildGraph(docs)
	if g.Skipped > 0 {
		p.logger.Debug("skipped records", "count", g.Skipped)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2) Classification
	progress("classify", 50)
	classes := privesc.Classify(g.Index)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3) Risk leveling
	progress("level", 80)
	tiers, suppressed := privesc.Level(g.Index, g.Edges)

	summary := ad.Summarize(g.Index, g.Edges)
	summary.Documents = len(docs)
	summary.Suppressed = suppressed

	p.logger.Info("triage complete",
		"documents", summary.Documents,
		"entities", summary.Entities,
		"edges", summary.Edges,
		"suppressed", summary.Suppressed,
	)
	progress("done", 100)

	return &model.Result{
		Summary:        summary,
		Index:          g.Index,
		Edges:          g.Edges,
		Classification: classes,
		Tiers:          tiers,
	}, nil
}
