package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxListedIDs caps how many ids a drift listing prints before summarizing.
const maxListedIDs = 8

// VerifyKind holds the verification outcome for one entity kind.
type VerifyKind struct {
	Kind      string   `json:"kind"`
	Entities  int      `json:"entities"`
	Documents int      `json:"documents"`
	Orphans   []string `json:"orphans,omitempty"`
	Missing   []int64  `json:"missing,omitempty"`
}

// Clean reports whether the kind shows no drift.
func (k VerifyKind) Clean() bool {
	return len(k.Orphans) == 0 && len(k.Missing) == 0
}

// VerifyInfo aggregates verification outcomes across all kinds.
type VerifyInfo struct {
	Kinds []VerifyKind `json:"kinds"`
	Fixed int64        `json:"fixed,omitempty"` // markers queued to repair drift
}

// Clean reports whether every kind shows no drift.
func (v VerifyInfo) Clean() bool {
	for _, k := range v.Kinds {
		if !k.Clean() {
			return false
		}
	}
	return true
}

// VerifyRenderer displays verification reports.
type VerifyRenderer struct {
	out    io.Writer
	styles Styles
}

// NewVerifyRenderer creates a verify renderer.
func NewVerifyRenderer(out io.Writer, noColor bool) *VerifyRenderer {
	return &VerifyRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays the verification report to terminal.
func (r *VerifyRenderer) Render(info VerifyInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Verification"))

	for _, k := range info.Kinds {
		badge := r.styles.Success.Render("OK")
		if !k.Clean() {
			badge = r.styles.Error.Render("DRIFT")
		}
		_, _ = fmt.Fprintf(r.out, "  %-8s %s\n", k.Kind, badge)
		_, _ = fmt.Fprintf(r.out, "    Entities:  %d\n", k.Entities)
		_, _ = fmt.Fprintf(r.out, "    Documents: %d\n", k.Documents)
		if len(k.Orphans) > 0 {
			_, _ = fmt.Fprintf(r.out, "    Orphaned documents (%d): %s\n", len(k.Orphans), formatIDList(k.Orphans))
		}
		if len(k.Missing) > 0 {
			_, _ = fmt.Fprintf(r.out, "    Missing documents (%d): %s\n", len(k.Missing), formatIDList(formatKeys(k.Missing)))
		}
		_, _ = fmt.Fprintln(r.out)
	}

	switch {
	case info.Fixed > 0:
		_, _ = fmt.Fprintf(r.out, "  Queued %d markers. The next drain cycle reconciles them.\n", info.Fixed)
	case info.Clean():
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Success.Render("Index is consistent with the database."))
	default:
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render("Run with --fix to queue the drifted entries for reconciliation."))
	}

	return nil
}

// RenderJSON outputs the report as JSON.
func (r *VerifyRenderer) RenderJSON(info VerifyInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatIDList joins ids for display, summarizing overlong lists.
func formatIDList(ids []string) string {
	if len(ids) <= maxListedIDs {
		return strings.Join(ids, ", ")
	}
	shown := strings.Join(ids[:maxListedIDs], ", ")
	return fmt.Sprintf("%s (and %d more)", shown, len(ids)-maxListedIDs)
}

func formatKeys(keys []int64) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strconv.FormatInt(k, 10)
	}
	return out
}
