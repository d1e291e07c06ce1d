package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nebula-lang/nebula-setup/internal/desktop"
	"github.com/nebula-lang/nebula-setup/internal/editors"
	"github.com/nebula-lang/nebula-setup/internal/ledger"
	"github.com/nebula-lang/nebula-setup/internal/reconcile"
)

// Style holds rendering options shared by every renderer.
type Style struct {
	Color bool
}

func rule(n int) string {
	return strings.Repeat("─", n) + "\n"
}

// RenderTargets renders the editor detection table.
func RenderTargets(targets []editors.Target, st Style) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-18s %-10s %s\n", "Editor", "Detected", "Location")
	sb.WriteString(rule(64))
	for _, t := range targets {
		detected := paint(st.Color, ansiGray, "no")
		if t.Detected {
			detected = paint(st.Color, ansiGreen, "yes")
		}
		loc := t.Locator
		if loc == "" {
			loc = "-"
		}
		// Pad before painting so escape codes do not shift columns.
		fmt.Fprintf(&sb, "%-18s %s %s\n",
			truncate(t.Kind.DisplayName(), 18), padRight(detected, 3, 10), loc)
	}
	return sb.String()
}

// RenderResults renders one row per dispatch result.
func RenderResults(results []editors.Result, st Style) string {
	if len(results) == 0 {
		return "No editor integrations attempted.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-18s %-22s %-8s %s\n", "Editor", "Outcome", "Time", "Detail")
	sb.WriteString(rule(72))
	for _, r := range results {
		outcome := r.Outcome.String()
		elapsed := "-"
		if r.Attempted() {
			elapsed = r.Elapsed.Round(10 * time.Millisecond).String()
		}
		fmt.Fprintf(&sb, "%-18s %s %-8s %s\n",
			truncate(r.Kind.DisplayName(), 18),
			padRight(paint(st.Color, outcomeColor(r.Outcome), outcome), len(outcome), 22),
			elapsed, r.Message)
	}
	return sb.String()
}

func outcomeColor(o editors.Outcome) string {
	switch o {
	case editors.Succeeded:
		return ansiGreen
	case editors.FailedIgnored:
		return ansiYellow
	case editors.Informational:
		return ""
	default:
		return ansiGray
	}
}

// StatusView is everything `nebula-setup status` reports.
type StatusView struct {
	// Record is nil when nothing is installed.
	Record    *ledger.Record
	LedgerErr error
	BinDir    string
	OnPath    bool
	PathStore string
	Targets   []editors.Target
	Artifacts []desktop.Artifact
	ManifestN int
	Now       time.Time
}

// RenderStatus renders the status report.
func RenderStatus(v StatusView, st Style) string {
	var sb strings.Builder

	sb.WriteString("Install\n")
	sb.WriteString(rule(40))
	switch {
	case v.LedgerErr != nil:
		fmt.Fprintf(&sb, "  %s\n", paint(st.Color, ansiRed, "ledger unreadable: "+v.LedgerErr.Error()))
	case v.Record == nil:
		sb.WriteString("  not installed\n")
	default:
		r := v.Record
		fmt.Fprintf(&sb, "  %-18s %s\n", "Location", r.InstallPath)
		fmt.Fprintf(&sb, "  %-18s %s\n", "Version", r.ProductVersion)
		fmt.Fprintf(&sb, "  %-18s %s\n", "Extension version", orDash(r.ExtensionVersion))
		fmt.Fprintf(&sb, "  %-18s %s\n", "Installed", installedAgo(r.InstallDate, v.Now))
		if v.ManifestN > 0 {
			fmt.Fprintf(&sb, "  %-18s %s\n", "Managed files", humanize.Comma(int64(v.ManifestN)))
		}
	}

	if v.BinDir != "" {
		state := paint(st.Color, ansiYellow, "missing")
		if v.OnPath {
			state = paint(st.Color, ansiGreen, "present")
		}
		fmt.Fprintf(&sb, "  %-18s %s (%s)\n", "PATH entry", state, v.BinDir)
		if v.PathStore != "" {
			fmt.Fprintf(&sb, "  %-18s %s\n", "PATH store", v.PathStore)
		}
	}

	if len(v.Artifacts) > 0 {
		sb.WriteString("\nDesktop integration\n")
		sb.WriteString(rule(40))
		for _, a := range v.Artifacts {
			present := "absent"
			if a.Present {
				present = "present"
			}
			fmt.Fprintf(&sb, "  %-18s %-8s %s\n", a.Name, present, a.Path)
		}
	}

	if len(v.Targets) > 0 {
		sb.WriteString("\n")
		sb.WriteString(RenderTargets(v.Targets, st))
	}
	return sb.String()
}

// RenderPlan describes what an install run would do.
func RenderPlan(p reconcile.Plan, root string, rec *ledger.Record, b reconcile.Build) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Install plan: %s\n", p.State)
	sb.WriteString(rule(40))
	fmt.Fprintf(&sb, "  %-22s %s\n", "Target", root)
	if rec != nil {
		fmt.Fprintf(&sb, "  %-22s %s -> %s\n", "Version", rec.ProductVersion, b.ProductVersion)
	} else {
		fmt.Fprintf(&sb, "  %-22s %s\n", "Version", b.ProductVersion)
	}
	fmt.Fprintf(&sb, "  %-22s %s\n", "Copy files", yesNo(true))
	fmt.Fprintf(&sb, "  %-22s %s\n", "New manifest", yesNo(p.FullCopy))
	fmt.Fprintf(&sb, "  %-22s %s\n", "Preserve config", yesNo(p.BackupConfig))
	fmt.Fprintf(&sb, "  %-22s %s\n", "PATH and desktop tasks", yesNo(p.ApplyTasks))
	fmt.Fprintf(&sb, "  %-22s %s\n", "Editor extensions", yesNo(p.RunExtensions))
	return sb.String()
}

func installedAgo(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if now.IsZero() {
		now = time.Now()
	}
	return fmt.Sprintf("%s (%s)", t.Format(ledger.DateLayout), humanize.RelTime(t, now, "ago", "from now"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// padRight pads a possibly colored string whose visible length is n.
func padRight(s string, n, width int) string {
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// truncate shortens s to max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
