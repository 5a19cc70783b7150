package cli

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rizome-dev/kasir/internal/assistant"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

// renderReply formats an assistant reply for the terminal
func renderReply(r *assistant.Reply) string {
	switch r.Kind {
	case assistant.KindExecuted:
		return renderResult(r.Result)
	case assistant.KindNeedsConfirmation:
		return warnStyle.Render("? "+r.Message) + dimStyle.Render("  [y/n]")
	case assistant.KindIncomplete:
		return warnStyle.Render("… " + r.Message)
	default:
		return dimStyle.Render(r.Message)
	}
}

func renderResult(res *actpkg.Result) string {
	if res == nil {
		return errorStyle.Render("✗ no result")
	}
	if !res.Success {
		line := "✗ " + res.Message
		if res.Error != "" {
			line += ": " + res.Error
		}
		return errorStyle.Render(line)
	}

	var b strings.Builder
	b.WriteString(successStyle.Render("✓ " + res.Message))
	if tp := topProducts(res.Data["topProducts"]); len(tp) > 0 {
		b.WriteString("\n")
		for i, p := range tp {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %d. %v x%v", i+1, p["name"], p["quantity"])))
			b.WriteString("\n")
		}
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%dms)", res.DurationMS())))
	return b.String()
}

// topProducts accepts both the fresh report payload and one decoded from the cache
func topProducts(v interface{}) []map[string]interface{} {
	switch tp := v.(type) {
	case []map[string]interface{}:
		return tp
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(tp))
		for _, item := range tp {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func renderActions(byCategory map[string][]*actpkg.Action) string {
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, c := range categories {
		b.WriteString(titleStyle.Render(c))
		b.WriteString("\n")
		for _, a := range byCategory[c] {
			confirm := ""
			if a.RequiresConfirmation {
				confirm = warnStyle.Render(" (confirm)")
			}
			fmt.Fprintf(&b, "  %s %-26s %s%s\n", a.Icon, a.ID, a.Description, confirm)
			for _, p := range a.Parameters {
				b.WriteString(dimStyle.Render("      " + describeParameter(p)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeParameter(p actpkg.Parameter) string {
	desc := fmt.Sprintf("%s (%s)", p.Name, p.Type)
	if p.Type == actpkg.ParamEnum {
		desc = fmt.Sprintf("%s (%s)", p.Name, strings.Join(p.EnumOptions, "|"))
	}
	if p.Required {
		desc += " required"
	}
	if p.DefaultValue != nil {
		desc += fmt.Sprintf(" default %v", p.DefaultValue)
	}
	return desc
}

func renderExecution(e *actpkg.Execution) string {
	status := string(e.Status)
	switch e.Status {
	case actpkg.StatusSuccess:
		status = successStyle.Render(status)
	case actpkg.StatusFailed:
		status = errorStyle.Render(status)
	default:
		status = warnStyle.Render(status)
	}

	line := fmt.Sprintf("%s  %-24s %-8s %s", e.StartTime.Local().Format("2006-01-02 15:04:05"), e.ActionID, e.UserID, status)
	if e.Result != nil && e.Result.Message != "" {
		line += dimStyle.Render("  " + e.Result.Message)
	}
	return line
}
