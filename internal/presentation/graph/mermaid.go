package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
)

// Overlay contains the outcome of a run to visualize on the graph.
// Indexes refer to the top level steps of the chain.
type Overlay struct {
	Executed []int
	Skipped  []int
	Failed   *int
}

// GenerateMermaid produces a Mermaid flowchart of a chain description.
// It applies semantic styling:
// - Chain: ((Circle)) for the root, a subgraph for nested chains
// - Writing actions (update, copy): [[Subroutine]]
// - Filters: {{Hexagon}}
// - Messages and dialogs: [/Parallelogram/]
// - Default: [Rectangle]
// Edges are dotted once the input is frozen, and the result step is highlighted.
// It also applies overlay styles if provided.
func GenerateMermaid(id string, desc domain.ActionDescription, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root := sanitizeMermaidID(id)
	if root == "" {
		root = "chain"
	}
	title := desc.Name
	if title == "" {
		title = id
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", root, escapeLabel(title))

	if !desc.IsChain() {
		step := root + "_0"
		writeNode(&sb, "    ", step, desc)
		fmt.Fprintf(&sb, "    %s --> %s\n", root, step)
		return sb.String()
	}

	result := writeChain(&sb, "    ", root, desc, true)

	sb.WriteString("\n    classDef result stroke:#2e7d32,stroke-width:3px;\n")
	fmt.Fprintf(&sb, "    class %s result;\n", result)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the labels readable on light fills in both themes.
		sb.WriteString("    classDef executed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		n := len(desc.Actions)
		seen := make(map[int]bool)
		for _, i := range overlay.Executed {
			if i >= 0 && i < n && !seen[i] {
				seen[i] = true
				fmt.Fprintf(&sb, "    class %s executed;\n", stepID(root, i))
			}
		}
		for _, i := range overlay.Skipped {
			if i >= 0 && i < n {
				fmt.Fprintf(&sb, "    class %s skipped;\n", stepID(root, i))
			}
		}
		if f := overlay.Failed; f != nil && *f >= 0 && *f < n {
			fmt.Fprintf(&sb, "    class %s failed;\n", stepID(root, *f))
		}
	}

	return sb.String()
}

// writeChain renders the steps of a chain below prev and returns the ID of the result step.
// Without entry the first step gets no incoming edge, as prev is then the enclosing subgraph.
func writeChain(sb *strings.Builder, indent, prev string, desc domain.ActionDescription, entry bool) string {
	freeze := len(desc.Actions)
	if desc.UseInputDataOfAction != nil {
		freeze = *desc.UseInputDataOfAction
	}
	multiTx := desc.UseSingleTransaction != nil && !*desc.UseSingleTransaction

	resultIdx := len(desc.Actions) - 1
	if desc.UseResultOfAction != nil {
		resultIdx = *desc.UseResultOfAction
	}
	result := prev

	for i, step := range desc.Actions {
		id := stepID(prev, i)
		if step.IsChain() {
			fmt.Fprintf(sb, "%ssubgraph %s [\"%s\"]\n", indent, id, escapeLabel(label(step)))
			inner := writeChain(sb, indent+"    ", id, step, false)
			fmt.Fprintf(sb, "%send\n", indent)
			if i == resultIdx {
				result = inner
			}
		} else {
			writeNode(sb, indent, id, step)
			if i == resultIdx {
				result = id
			}
		}

		if i == 0 && !entry {
			continue
		}
		from := prev
		if i > 0 {
			from = stepID(prev, i-1)
		}
		arrow := "-->"
		if i > freeze {
			arrow = "-.->"
		}
		var notes []string
		if multiTx {
			notes = append(notes, "tx")
		}
		if desc.SkipActionsIfInputEmpty && needsInput(step) {
			notes = append(notes, "skip if empty")
		}
		if len(notes) > 0 {
			if i > freeze {
				arrow = fmt.Sprintf("-. \"%s\" .->", strings.Join(notes, ", "))
			} else {
				arrow = fmt.Sprintf("-- \"%s\" -->", strings.Join(notes, ", "))
			}
		}
		fmt.Fprintf(sb, "%s%s %s %s\n", indent, from, arrow, id)
	}
	return result
}

func writeNode(sb *strings.Builder, indent, id string, desc domain.ActionDescription) {
	opener, closer := "[", "]"
	switch desc.Alias {
	case domain.AliasUpdateData, domain.AliasCopyData:
		opener, closer = "[[", "]]"
	case domain.AliasFilterData:
		opener, closer = "{{", "}}"
	case domain.AliasShowMessage, domain.AliasShowDialog:
		opener, closer = "[/", "/]"
	}
	fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, id, opener, escapeLabel(label(desc)), closer)
}

func label(desc domain.ActionDescription) string {
	if desc.Name != "" {
		return desc.Name + " <br/> " + desc.Alias
	}
	return desc.Alias
}

// needsInput mirrors the default row minimums of the built-in actions.
func needsInput(desc domain.ActionDescription) bool {
	if desc.InputRowsMin != nil {
		return *desc.InputRowsMin != 0
	}
	switch desc.Alias {
	case domain.AliasUpdateData, domain.AliasCopyData:
		return true
	case domain.AliasChain:
		return len(desc.Actions) > 0 && needsInput(desc.Actions[0])
	}
	return false
}

func stepID(parent string, i int) string {
	return fmt.Sprintf("%s_%d", parent, i)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
