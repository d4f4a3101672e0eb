package main

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-replay/linker"
	"github.com/wippyai/wasm-replay/runtime"
	"github.com/wippyai/wasm-replay/wasm"
)

func renderReport(r *runtime.LinkReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Link report"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n\n",
		namespaceStyle.Render(linker.CapabilityNamespace),
		mutedStyle.Render(fmt.Sprintf("(%d capabilities)", len(r.Capabilities))))

	for i, s := range r.Steps {
		b.WriteString(stepHeader(i, s))
		b.WriteString("\n")
		for _, line := range stepLines(s, r.Entry) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if err := r.Err(); err != nil {
		b.WriteString(errorStyle.Render("first failure: " + err.Error()))
	} else {
		b.WriteString(okStyle.Render("all imports resolve"))
	}
	b.WriteString("\n")
	return b.String()
}

func stepHeader(i int, s runtime.StepReport) string {
	target := mutedStyle.Render("(terminal)")
	if s.Namespace != "" {
		target = "-> " + namespaceStyle.Render(fmt.Sprintf("%q", s.Namespace))
	}
	return fmt.Sprintf("%d. %s %s", i+1, roleStyle.Render(s.Role), target)
}

// stepLines renders the body of one step. entry is shown for the terminal step.
func stepLines(s runtime.StepReport, entry runtime.EntryReport) []string {
	lines := []string{
		mutedStyle.Render("path   ") + s.Path,
		mutedStyle.Render("sha256 ") + shortDigest(s.Digest),
		"imports:",
	}
	if len(s.Imports) == 0 {
		lines = append(lines, mutedStyle.Render("  (none)"))
	}
	for _, imp := range s.Imports {
		line := fmt.Sprintf("  %s %s %s.%s", mark(imp.Resolved), wasm.KindName(imp.Kind), imp.Namespace, imp.Name)
		if imp.Signature != "" {
			line += " " + mutedStyle.Render(imp.Signature)
		}
		if !imp.Resolved {
			line += " " + errorStyle.Render(imp.Reason)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "exports:")
	if len(s.Exports) == 0 {
		lines = append(lines, mutedStyle.Render("  (none)"))
	}
	for _, exp := range s.Exports {
		lines = append(lines, "  "+exp.String())
	}

	if s.Namespace == "" {
		line := fmt.Sprintf("entry: %s %s", mark(entry.Found), entry.Name)
		if !entry.Found {
			line += " " + errorStyle.Render(entry.Reason)
		}
		lines = append(lines, line)
	}
	return lines
}

func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return errorStyle.Render("✗")
}

func shortDigest(d string) string {
	if len(d) > 16 {
		return d[:16]
	}
	return d
}
