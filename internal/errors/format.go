package errors

import (
	"fmt"
	"strings"
)

// FormatCLI formats an error for terminal display. Foreign errors are
// wrapped as internal so the output shape stays uniform.
func FormatCLI(err error) string {
	if err == nil {
		return ""
	}

	se, ok := err.(*SyncError)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", se.Suggestion)
	}
	if se.Retryable {
		sb.WriteString("  The queue keeps the pending work; the next drain cycle will retry it.\n")
	}
	fmt.Fprintf(&sb, "  Code: %s\n", se.Code)
	return sb.String()
}

// FormatLog converts an error into slog-ready key-value pairs.
func FormatLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	se, ok := err.(*SyncError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"error_code": se.Code,
		"message":    se.Message,
		"category":   string(se.Category),
		"severity":   string(se.Severity),
		"retryable":  se.Retryable,
	}
	if se.Cause != nil {
		result["cause"] = se.Cause.Error()
	}
	if se.Suggestion != "" {
		result["suggestion"] = se.Suggestion
	}
	return result
}
