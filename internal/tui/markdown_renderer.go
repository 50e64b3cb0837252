package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hylla/labgantt/internal/domain"
)

// minDetailsWrap keeps narrow terminals from wrapping the details panel into noise.
const minDetailsWrap = 24

// markdownRenderer renders item details and rebuilds its glamour renderer when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown into ANSI-styled terminal text. On renderer
// failure the raw markdown is returned so details stay readable.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(width, minDetailsWrap)

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSpace(rendered)
}

// itemMarkdown describes one item for the details panel.
func itemMarkdown(item domain.Item) string {
	s := item.Base()
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", domain.Label(item))
	fmt.Fprintf(&b, "- **kind:** %s\n", item.Kind())
	fmt.Fprintf(&b, "- **status:** %s\n", s.Status)
	fmt.Fprintf(&b, "- **dates:** %s to %s (%d days)\n", domain.FormatDate(s.Start), domain.FormatDate(s.End), s.Duration()+1)

	var details domain.AssayDetails
	switch v := item.(type) {
	case domain.EfficiencyAssay:
		fmt.Fprintf(&b, "- **lane:** %s\n", laneOrPending(s.LaneID))
		details = v.AssayDetails
	case domain.SafetyAssay:
		fmt.Fprintf(&b, "- **responsible:** %s\n", s.LaneID)
		details = v.AssayDetails
	case domain.CalibrationEvent:
		fmt.Fprintf(&b, "- **terminals:** %s\n", v.Scope)
		if v.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", v.Description)
		}
		return b.String()
	case domain.VacationEvent:
		fmt.Fprintf(&b, "- **person:** %s\n", v.Person)
		return b.String()
	}

	fields := []struct {
		name  string
		value string
	}{
		{"protocol", details.Protocol},
		{"manufacturer", details.Manufacturer},
		{"model", details.Model},
		{"load", details.Load},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.name, f.value)
		}
	}
	if details.Cycles > 0 {
		fmt.Fprintf(&b, "- **cycles:** %d\n", details.Cycles)
	}
	if next := domain.NextStatuses(item.Kind(), s.Status); len(next) > 0 {
		names := make([]string, len(next))
		for i, st := range next {
			names[i] = string(st)
		}
		fmt.Fprintf(&b, "- **next:** %s\n", strings.Join(names, ", "))
	}
	if details.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", details.Notes)
	}
	return b.String()
}

func laneOrPending(laneID string) string {
	if laneID == "" {
		return domain.PendingLaneID
	}
	return "terminal " + laneID
}
