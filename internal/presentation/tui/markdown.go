package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/spf13/cast"
)

// maxRows caps the rows printed for a dataset.
const maxRows = 50

// ResultMarkdown renders the outcome of a run.
func ResultMarkdown(chainID string, res *domain.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", chainID)

	if res == nil {
		sb.WriteString("_No result._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "- **Result:** %s\n", res.Kind)
	fmt.Fprintf(&sb, "- **Data modified:** %t\n", res.DataModified)
	if res.Message != "" {
		sb.WriteString("\n")
		for _, line := range strings.Split(res.Message, "\n") {
			fmt.Fprintf(&sb, "> %s\n", line)
		}
	}
	if res.HasData() {
		sb.WriteString("\n")
		sb.WriteString(DatasetMarkdown(res.Data))
	}
	return sb.String()
}

// DatasetMarkdown renders rows as a markdown table with sorted columns.
func DatasetMarkdown(d *domain.Dataset) string {
	if d.IsEmpty() {
		return "_No rows._\n"
	}

	var sb strings.Builder
	if d.Object != "" {
		fmt.Fprintf(&sb, "**%s** (%d rows)\n\n", d.Object, d.Len())
	}

	colSet := make(map[string]bool)
	for _, row := range d.Rows {
		for k := range row {
			colSet[k] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	sb.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for i, row := range d.Rows {
		if i == maxRows {
			fmt.Fprintf(&sb, "\n_%d more rows._\n", d.Len()-maxRows)
			break
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			if v, ok := row[c]; ok && v != nil {
				cells[j] = escapeCell(cast.ToString(v))
			}
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

// ChainMarkdown renders a description and its merged effects.
func ChainMarkdown(id string, desc domain.ActionDescription, effects []domain.Effect) string {
	var sb strings.Builder
	title := desc.Name
	if title == "" {
		title = id
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "`%s` (%s)\n\n", id, desc.Alias)
	if desc.ObjectAlias != "" {
		fmt.Fprintf(&sb, "- **Object:** %s\n", desc.ObjectAlias)
	}
	if desc.IsChain() {
		mode := "single"
		if desc.UseSingleTransaction != nil && !*desc.UseSingleTransaction {
			mode = "per step"
		}
		fmt.Fprintf(&sb, "- **Transaction:** %s\n", mode)
		if desc.SkipActionsIfInputEmpty {
			sb.WriteString("- **Skips steps once the input is empty**\n")
		}
		sb.WriteString("\n## Steps\n\n")
		writeSteps(&sb, "", desc.Actions)
	}

	if len(effects) > 0 {
		sb.WriteString("\n## Effects\n\n")
		sb.WriteString("| Object | Type |\n| --- | --- |\n")
		for _, e := range effects {
			fmt.Fprintf(&sb, "| %s | %s |\n", e.Object.AliasWithNamespace(), e.Type)
		}
	}
	return sb.String()
}

func writeSteps(sb *strings.Builder, indent string, steps []domain.ActionDescription) {
	for i, s := range steps {
		fmt.Fprintf(sb, "%s%d. `%s`", indent, i+1, s.Alias)
		if s.Name != "" {
			fmt.Fprintf(sb, " %s", s.Name)
		}
		sb.WriteString("\n")
		if s.IsChain() {
			writeSteps(sb, indent+"   ", s.Actions)
		}
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
