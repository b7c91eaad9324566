package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// KindStatus summarizes queue and index health for one entity kind.
type KindStatus struct {
	Kind      string `json:"kind"`
	Pending   int64  `json:"pending"`   // queue markers awaiting the next drain
	Entities  int64  `json:"entities"`  // rows in the database
	Documents uint64 `json:"documents"` // documents in the search index
}

// State classifies the kind as "pending" while markers await a drain,
// "drift" when the queue is empty but the counts still disagree, and
// "in sync" otherwise.
func (k KindStatus) State() string {
	switch {
	case k.Pending > 0:
		return "pending"
	case uint64(k.Entities) != k.Documents:
		return "drift"
	default:
		return "in sync"
	}
}

// StatusInfo contains sync health information.
type StatusInfo struct {
	DatabasePath string       `json:"database_path"`
	DatabaseSize int64        `json:"database_size"`
	Backend      string       `json:"backend"`
	IndexSize    int64        `json:"index_size,omitempty"`
	Interval     string       `json:"interval"`
	Kinds        []KindStatus `json:"kinds"`
}

// StatusRenderer displays sync status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Search Sync Status"))

	_, _ = fmt.Fprintf(r.out, "  Database: %s (%s)\n", info.DatabasePath, FormatBytes(info.DatabaseSize))
	if info.IndexSize > 0 {
		_, _ = fmt.Fprintf(r.out, "  Backend:  %s (%s)\n", info.Backend, FormatBytes(info.IndexSize))
	} else {
		_, _ = fmt.Fprintf(r.out, "  Backend:  %s\n", info.Backend)
	}
	if info.Interval != "" {
		_, _ = fmt.Fprintf(r.out, "  Interval: %s\n", info.Interval)
	}
	_, _ = fmt.Fprintln(r.out)

	header := fmt.Sprintf("  %-8s %9s %9s %10s  %s", "KIND", "PENDING", "ENTITIES", "DOCUMENTS", "STATE")
	_, _ = fmt.Fprintln(r.out, r.styles.Label.Render(header))
	for _, k := range info.Kinds {
		// Pad before styling so escape codes do not skew the columns.
		row := fmt.Sprintf("  %-8s %9d %9d %10d  ", k.Kind, k.Pending, k.Entities, k.Documents)
		_, _ = fmt.Fprintf(r.out, "%s%s\n", row, r.renderState(k.State()))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderState formats a kind state with color.
func (r *StatusRenderer) renderState(state string) string {
	switch state {
	case "in sync":
		return r.styles.Success.Render(state)
	case "pending":
		return r.styles.Warning.Render(state)
	case "drift":
		return r.styles.Error.Render(state)
	default:
		return state
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
