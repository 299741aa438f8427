package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Dhanuzh/starbott/internal/api"
)

const (
	maxToolOutputChars = 8000
	maxDirEntries      = 50
	maxLocalEntries    = 80
	truncatedMarker    = "…(truncated)"
)

// truncateChars cuts s to max runes and reports whether anything was dropped.
func truncateChars(s string, max int) (string, bool) {
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func formatBytes(n int64) string {
	if n < 0 {
		return ""
	}
	return humanize.IBytes(uint64(n))
}

type listingEntry struct {
	name  string
	bytes int64 // -1 when unknown
}

// writeGroups renders Folders/Files/Other sections, limit entries each.
func writeGroups(out *[]string, dirs, files, other []listingEntry, limit int) {
	group := func(label string, entries []listingEntry, dir bool) {
		if len(entries) == 0 {
			return
		}
		*out = append(*out, "", label+":")
		for i, e := range entries {
			if i == limit {
				*out = append(*out, "- ...")
				break
			}
			line := "- " + e.name
			if dir && !strings.HasSuffix(e.name, "/") {
				line += "/"
			}
			if e.bytes >= 0 {
				line += " (" + formatBytes(e.bytes) + ")"
			}
			*out = append(*out, line)
		}
	}
	group("Folders", dirs, true)
	group("Files", files, false)
	group("Other", other, false)
}

// formatDirListing renders a file.dir tool result. ok is false when the
// result has no entries array.
func formatDirListing(result map[string]any) (string, bool) {
	entries, ok := result["entries"].([]any)
	if !ok {
		return "", false
	}
	path := api.StringField(result, "path")
	if path == "" {
		path = "."
	}
	truncated := boolField(result, "truncated", false)

	var dirs, files, other []listingEntry
	for _, e := range objects(entries) {
		name := api.StringField(e, "name")
		if name == "" {
			continue
		}
		entry := listingEntry{name: name, bytes: -1}
		if n, ok := api.IntField(e, "bytes"); ok && n >= 0 {
			entry.bytes = int64(n)
		}
		switch api.StringField(e, "type") {
		case "dir":
			dirs = append(dirs, entry)
		case "file":
			files = append(files, entry)
		default:
			other = append(other, entry)
		}
	}

	out := []string{
		"Auto tool: file.dir",
		"",
		fmt.Sprintf("Directory listing for `%s` (%d entries%s):", path, len(entries), truncatedSuffix(truncated)),
	}
	writeGroups(&out, dirs, files, other, maxDirEntries)
	out = append(out, "", "Truncated: "+yesNo(truncated)+".")
	return strings.Join(out, "\n"), true
}

// formatFileRead renders a file.read tool result as a fenced block.
func formatFileRead(result map[string]any) (string, bool) {
	raw, ok := result["content"]
	if !ok {
		return "", false
	}
	content, _ := raw.(string)

	path := api.StringField(result, "path")
	if path == "" {
		path = "-"
	}
	detected := api.StringField(result, "detectedType")
	if detected == "" {
		detected = "text"
	}
	total, _ := api.IntField(result, "totalBytes")
	start, ok := api.IntField(result, "lineStart")
	if !ok {
		start = 1
	}
	end, ok := api.IntField(result, "lineEnd")
	if !ok {
		end = 1
	}

	snippet, clipped := truncateChars(content, maxToolOutputChars)
	out := []string{
		"Auto tool: file.read",
		"",
		fmt.Sprintf("File: `%s` (type=%s, lines %d-%d, bytes=%d, truncated=%s)",
			path, detected, start, end, total, yesNo(boolField(result, "truncated", false))),
		"",
		"```" + detected,
		snippet,
	}
	if clipped {
		out = append(out, "\n"+truncatedMarker)
	}
	out = append(out, "```")
	return strings.Join(out, "\n"), true
}

// formatToolResult renders the inner result of a tool run.
func formatToolResult(toolName string, result map[string]any) string {
	switch toolName {
	case "file.dir":
		if s, ok := formatDirListing(result); ok {
			return s
		}
		return compactJSON(result)
	case "file.read":
		if s, ok := formatFileRead(result); ok {
			return s
		}
		return compactJSON(result)
	}
	text, clipped := truncateChars(prettyJSON(result), maxToolOutputChars)
	if clipped {
		text += "\n" + truncatedMarker
	}
	return text
}

// formatToolProposal renders a /v1/tools/propose response for the transcript.
func formatToolProposal(toolName string, payload map[string]any) string {
	if boolField(payload, "requiresConfirmation", false) {
		preview, ok := payload["preview"]
		if !ok {
			preview = map[string]any{}
		}
		snippet, clipped := truncateChars(prettyJSON(preview), maxToolOutputChars)
		out := []string{"Tool proposal (requires confirmation): " + toolName, "", snippet}
		if clipped {
			out = append(out, truncatedMarker)
		}
		out = append(out, "", "This tool requires confirmation; choices only support safe tools.")
		return strings.Join(out, "\n")
	}

	runID := api.StringField(payload, "runId")
	if runID == "" {
		runID = "-"
	}
	result := api.ObjectField(payload, "result")
	if result == nil {
		result = map[string]any{}
	}
	return fmt.Sprintf("Tool result: %s (runId: %s)\n\n%s", toolName, runID, formatToolResult(toolName, result))
}

// formatAutoTools renders the server-run tools attached to a chat reply.
// Only file.dir and file.read have a readable form; others are skipped.
func formatAutoTools(payload map[string]any) []string {
	var out []string
	for _, t := range objects(api.ArrayField(payload, "autoTools")) {
		result := api.ObjectField(t, "result")
		if result == nil {
			continue
		}
		var (
			text string
			ok   bool
		)
		switch api.StringField(t, "toolName") {
		case "file.dir":
			text, ok = formatDirListing(result)
		case "file.read":
			text, ok = formatFileRead(result)
		}
		if ok {
			out = append(out, text)
		}
	}
	return out
}

// localDirListing lists target (relative to workingDir) for /ls.
func localDirListing(workingDir, target string) string {
	path := workingDir
	if target != "" {
		if filepath.IsAbs(target) {
			path = target
		} else {
			path = filepath.Join(workingDir, target)
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Local directory listing failed for `%s`: %v", path, err)
	}

	var dirs, files, other []listingEntry
	for _, e := range entries {
		entry := listingEntry{name: e.Name(), bytes: -1}
		if info, err := os.Stat(filepath.Join(path, e.Name())); err == nil {
			entry.bytes = info.Size()
		}
		switch {
		case e.IsDir():
			dirs = append(dirs, entry)
		case e.Type().IsRegular():
			files = append(files, entry)
		default:
			other = append(other, entry)
		}
	}
	for _, g := range [][]listingEntry{dirs, files, other} {
		sort.SliceStable(g, func(i, j int) bool {
			return strings.ToLower(g[i].name) < strings.ToLower(g[j].name)
		})
	}

	truncated := len(dirs) > maxLocalEntries || len(files) > maxLocalEntries || len(other) > maxLocalEntries
	out := []string{fmt.Sprintf("Local directory listing for `%s` (%d entries%s):",
		path, len(dirs)+len(files)+len(other), truncatedSuffix(truncated))}
	writeGroups(&out, dirs, files, other, maxLocalEntries)
	return strings.Join(out, "\n")
}

func truncatedSuffix(truncated bool) string {
	if truncated {
		return ", truncated"
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
