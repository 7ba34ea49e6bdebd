package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"assetlib/internal/export"
	"assetlib/internal/preflight"
	"assetlib/internal/services/ingest"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusStyles = [...]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// renderStatusLine formats "  Label:   [KIND] message", tinted as a whole
// when colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		line = style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = ansiBlue + lines[i] + ansiReset
		}
	}
	return lines
}

// shouldColorize is true only for terminals, so piped output stays plain.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// statusBlock accumulates rendered lines sharing one color setting.
type statusBlock struct {
	colorize bool
	lines    []string
}

func (b *statusBlock) add(label string, kind statusKind, message string) {
	b.lines = append(b.lines, renderStatusLine(label, kind, message, b.colorize))
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	b := statusBlock{colorize: colorize}
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		b.add(r.Name, kind, r.Detail)
	}
	return b.lines
}

// exportLines summarizes an export result followed by its issues.
func exportLines(result *export.Result, colorize bool) []string {
	b := statusBlock{colorize: colorize, lines: renderSectionHeader("Export", colorize)}

	overall, issueKind := statusOK, statusWarn
	if !result.Success {
		overall, issueKind = statusError, statusError
	} else if len(result.Issues) > 0 {
		overall = statusWarn
	}
	b.add("Result", overall, result.Status)
	if result.AssetID != "" {
		b.add("Asset", statusInfo, result.AssetID)
	}
	if result.AssetDir != "" {
		b.add("Directory", statusInfo, result.AssetDir)
	}

	if result.Success {
		b.add("Files copied", statusInfo, strconv.Itoa(result.FilesCopied))
		b.add("Paths remapped", statusInfo, strconv.Itoa(result.RemapCount))
		b.add("Frame range", statusInfo, fmt.Sprintf("%d-%d", result.FrameRange.Start, result.FrameRange.End))
		if status := result.Ingestion.Status; status != "" {
			b.add("Ingestion", ingestionKind(status), ingestionDetail(result.Ingestion))
		}
	}

	for _, issue := range result.Issues {
		msg := issue.Message
		if issue.Path != "" {
			msg += " (" + issue.Path + ")"
		}
		b.add(string(issue.Kind), issueKind, msg)
	}
	return b.lines
}

func ingestionKind(status ingest.Status) statusKind {
	switch status {
	case ingest.StatusFailed, ingest.StatusRejected:
		return statusWarn
	case ingest.StatusSkipped:
		return statusInfo
	}
	return statusOK
}

func ingestionDetail(outcome ingest.Outcome) string {
	detail := string(outcome.Status)
	if outcome.ExternalID != "" {
		detail += " (id " + outcome.ExternalID + ")"
	}
	if outcome.Message != "" {
		detail += ": " + outcome.Message
	}
	return detail
}
