package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/funnel"
)

// GraphOverlay contains visitor progress to visualize on the graph.
type GraphOverlay struct {
	Visited []funnel.Stage
	Current funnel.Stage
}

// OverlayFor derives the overlay from a visitor's flags.
func OverlayFor(st funnel.State) *GraphOverlay {
	reached := st.Reached()
	o := &GraphOverlay{Current: reached}
	for _, s := range funnel.Stages() {
		if s == reached {
			break
		}
		o.Visited = append(o.Visited, s)
	}
	return o
}

// guardEdge is a backward redirect taken when a prerequisite flag is missing.
type guardEdge struct {
	from, to funnel.Stage
	missing  string
}

var guardEdges = []guardEdge{
	{funnel.StageContact, funnel.StageEntry, domain.FlagArrivedFromEntry},
	{funnel.StageConversationBefore, funnel.StageContact, domain.FlagParticipantName},
	{funnel.StageCustomization, funnel.StageConversationBefore, domain.FlagConversationBeforeDone},
	{funnel.StageOffer, funnel.StageConversationAfter, domain.FlagConversationAfterDone},
}

// GenerateMermaid produces a Mermaid flowchart of the funnel stages.
// It applies semantic styling:
// - Entry: ((Circle))
// - Contact capture: [/Parallelogram/]
// - Engine-driven stages: [[Subroutine]]
// - Offer: ([Stadium])
// Forward edges carry the flag the stage writes; dotted edges are guard redirects.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	stages := funnel.Stages()
	for _, s := range stages {
		opener, closer := "[", "]"
		switch s {
		case funnel.StageEntry:
			opener, closer = "((", "))"
		case funnel.StageContact:
			opener, closer = "[/", "/]"
		case funnel.StageConversationBefore, funnel.StageConversationAfter, funnel.StageCustomization:
			opener, closer = "[[", "]]"
		case funnel.StageOffer:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", sanitizeMermaidID(string(s)), opener, s, s.Page(), closer)
	}

	for i := 0; i+1 < len(stages); i++ {
		from, to := stages[i], stages[i+1]
		arrow := "-->"
		if label := writes(from); label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(from)), arrow, sanitizeMermaidID(string(to)))
	}

	for _, e := range guardEdges {
		fmt.Fprintf(&sb, "    %s -. \"no %s\" .-> %s\n",
			sanitizeMermaidID(string(e.from)), e.missing, sanitizeMermaidID(string(e.to)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[funnel.Stage]bool)
		for _, s := range overlay.Visited {
			if !seen[s] && s != "" {
				seen[s] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(string(s)))
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.Current)))
		}
	}

	return sb.String()
}

// writes names the flag a stage leaves behind.
func writes(s funnel.Stage) string {
	switch s {
	case funnel.StageEntry:
		return domain.FlagArrivedFromEntry
	case funnel.StageContact:
		return domain.FlagParticipantName
	}
	return s.Flag()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
