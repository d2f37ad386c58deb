package seeding

import (
	"fmt"
	"io"
	"time"

	"github.com/cory-johannsen/mapseed/internal/orchestrator"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// Phase names.
const (
	PhaseExploration = "exploration"
	PhaseCombat      = "combat"
)

// Status is the per-map result of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusReused    Status = "reused"
	// StatusPlanned marks a dry-run entry.
	StatusPlanned Status = "planned"
)

// MapResult records what happened to one map.
type MapResult struct {
	MapID    string
	Phase    string
	Status   Status
	Action   orchestrator.Action
	Path     tactical.GenerationPath
	Cost     float64
	Written  bool
	FellBack bool
	Warnings []string
	Err      error
}

// PhaseStats counts map results within one phase.
type PhaseStats struct {
	Succeeded int
	Failed    int
	Skipped   int
	Reused    int
	Planned   int
}

func (p *PhaseStats) add(s Status) {
	switch s {
	case StatusSucceeded:
		p.Succeeded++
	case StatusFailed:
		p.Failed++
	case StatusSkipped:
		p.Skipped++
	case StatusReused:
		p.Reused++
	case StatusPlanned:
		p.Planned++
	}
}

// Report summarizes a seeding run.
type Report struct {
	RunID       string
	CampaignID  string
	DryRun      bool
	Exploration PhaseStats
	Combat      PhaseStats
	Maps        []MapResult
	// CostUSD is spent cost, or estimated cost for a dry run.
	CostUSD float64
	Elapsed time.Duration
}

func (r *Report) record(res MapResult) {
	r.Maps = append(r.Maps, res)
	r.CostUSD += res.Cost
	if res.Phase == PhaseExploration {
		r.Exploration.add(res.Status)
	} else {
		r.Combat.add(res.Status)
	}
}

// Failed returns the number of maps that failed in either phase.
func (r Report) Failed() int {
	return r.Exploration.Failed + r.Combat.Failed
}

// Print writes a human-readable summary of r to w.
func (r Report) Print(w io.Writer) {
	mode := ""
	if r.DryRun {
		mode = "  (dry run)"
	}
	fmt.Fprintf(w, "run     %s  campaign %s%s\n", r.RunID, r.CampaignID, mode)
	for _, m := range r.Maps {
		line := fmt.Sprintf("%-8s%-24s %-12s %-9s %-18s $%.4f", "map", m.MapID, m.Phase, m.Status, m.Action, m.Cost)
		if m.Path != "" {
			line += "  " + string(m.Path)
		}
		if m.FellBack {
			line += "  (fell back)"
		}
		if m.Err != nil {
			line += "  error: " + m.Err.Error()
		}
		fmt.Fprintln(w, line)
		for _, warn := range m.Warnings {
			fmt.Fprintf(w, "        warning: %s\n", warn)
		}
	}
	printPhase(w, PhaseExploration, r.Exploration)
	printPhase(w, PhaseCombat, r.Combat)
	label := "cost"
	if r.DryRun {
		label = "est."
	}
	fmt.Fprintf(w, "%-8s$%.4f\n", label, r.CostUSD)
	if r.DryRun {
		fmt.Fprintln(w, "        upper bound: assumes no map is persisted yet; seeded maps cost nothing on a real run")
	}
	fmt.Fprintf(w, "total   %s\n", r.Elapsed.Round(time.Millisecond))
}

func printPhase(w io.Writer, name string, p PhaseStats) {
	fmt.Fprintf(w, "phase   %-12s succeeded=%d failed=%d skipped=%d reused=%d",
		name, p.Succeeded, p.Failed, p.Skipped, p.Reused)
	if p.Planned > 0 {
		fmt.Fprintf(w, " planned=%d", p.Planned)
	}
	fmt.Fprintln(w)
}
