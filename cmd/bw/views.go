package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
)

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteRune('\n')

	switch m.activeView {
	case viewBuilds:
		content := m.renderBuildList()
		listHeight := m.height - 3 // title, padding, status bar
		if m.showHelp {
			listHeight -= 2
		}
		lines := strings.Split(content, "\n")
		if len(lines) > listHeight {
			lines = lines[:max(0, listHeight)]
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteRune('\n')

	case viewBuild:
		b.WriteString(m.renderBuildHeader())
		b.WriteRune('\n')
		b.WriteString(m.viewport.View())
		b.WriteRune('\n')
	}

	// Truncate each line to terminal width so content doesn't wrap
	// on resize. Uses ANSI-aware width measurement.
	content := truncateLines(b.String(), m.width)

	var out strings.Builder
	out.WriteString(content)

	// Pad to fill screen.
	rendered := strings.Count(content, "\n")
	target := m.height - 2
	if m.showHelp {
		target -= 2 // the help block is three lines where the status bar is one
	}
	for rendered < target {
		out.WriteRune('\n')
		rendered++
	}

	// Help / status bar.
	if m.showHelp {
		out.WriteString(m.help.View(keys))
	} else {
		out.WriteString(m.renderStatusBar())
	}

	return out.String()
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("buildwatch")
	var right string
	switch m.activeView {
	case viewBuilds:
		right = dimStyle.Render(fmt.Sprintf("%s/%s | %d builds", m.owner, m.name, len(m.builds)))
	case viewBuild:
		right = dimStyle.Render(fmt.Sprintf("%s/%s #%d", m.owner, m.name, m.buildNumber))
	}
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(right)-2))
	return title + gap + right
}

func (m uiModel) renderStatusBar() string {
	right := fmt.Sprintf("refreshed %s ago ", time.Since(m.lastRefresh).Truncate(time.Second))
	if m.location != "" {
		right = fmt.Sprintf("#%s | %s", m.location, right)
	}
	if m.followingStep != 0 {
		right = fmt.Sprintf("following step %d | %s", m.followingStep, right)
	}
	if m.autoExpandSteps {
		right = "auto-expand on | " + right
	}

	// The state indicators keep the row; help and error text yield.
	avail := max(0, m.width-lipgloss.Width(right)-1)
	var left string
	if m.lastErr != nil {
		const tail = " (retrying)"
		left = " " + errStyle.Render(ansi.Truncate(m.lastErr.Error(), max(0, avail-len(tail)), "...")+tail)
	} else {
		left = " " + ansi.Truncate(contextHelp(m.activeView), avail, "")
	}

	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return statusBarStyle.Render(ansi.Truncate(left+gap+right, m.width, ""))
}

// --- Build list view ---

func (m uiModel) renderBuildList() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Builds"))
	b.WriteRune('\n')

	if len(m.builds) == 0 {
		b.WriteString(dimStyle.Render("  (no builds)"))
		b.WriteRune('\n')
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-7s %-9s %-18s %-10s %-9s %s",
		"BUILD", "STATUS", "BRANCH", "COMMIT", "ELAPSED", "MESSAGE")))
	b.WriteRune('\n')

	now := time.Now()
	for i, bl := range m.builds {
		cursor := "  "
		if i == m.buildCursor {
			cursor = "> "
		}
		elapsed := "-"
		if bl.Started > 0 {
			elapsed = shortDuration(buildDuration(&bl, now))
		}
		line := fmt.Sprintf("%s#%-6d %-9s %-18s %-10s %-9s %s",
			cursor, bl.Number, bl.Status, truncate(bl.Branch, 18), bl.ShortCommit(),
			elapsed, firstLine(bl.Message))
		style := statusStyle(bl.Status)
		if i == m.buildCursor {
			b.WriteString(style.Bold(true).Render(line))
		} else {
			b.WriteString(style.Render(line))
		}
		b.WriteRune('\n')
	}

	return b.String()
}

// --- Build view ---

// renderBuildHeader renders the three-line summary above the step list.
func (m uiModel) renderBuildHeader() string {
	var b strings.Builder

	if m.bld == nil {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Build #%d", m.buildNumber)))
		b.WriteRune('\n')
		b.WriteString(dimStyle.Render("  loading..."))
		b.WriteRune('\n')
		b.WriteRune('\n')
		return b.String()
	}

	bl := m.bld
	b.WriteString(headerStyle.Render(fmt.Sprintf("Build #%d", bl.Number)))
	b.WriteString("  ")
	b.WriteString(statusStyle(bl.Status).Bold(true).Render(fmt.Sprintf("%s %s", statusGlyph(bl.Status), bl.Status)))
	if bl.Started > 0 {
		b.WriteString(dimStyle.Render("  " + shortDuration(buildDuration(bl, time.Now()))))
	}
	b.WriteRune('\n')

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s @ %s  %s  %s",
		bl.Branch, bl.ShortCommit(), bl.Event, bl.Author)))
	b.WriteRune('\n')

	if bl.Error != "" {
		b.WriteString(errStyle.Render("  " + firstLine(bl.Error)))
	} else {
		b.WriteString("  " + firstLine(bl.Message))
	}
	b.WriteRune('\n')

	return b.String()
}

// renderSteps renders the step list with logs inline and records where
// each step landed so scrolling can target it.
func (m uiModel) renderSteps() (string, stepLayout) {
	layout := stepLayout{
		header: make(map[int]int),
		logEnd: make(map[int]int),
	}
	if len(m.steps) == 0 {
		return dimStyle.Render("  (no steps reported yet)"), layout
	}

	var lines []string
	now := time.Now()
	for i, st := range m.steps {
		layout.header[st.Number] = len(lines)
		lines = append(lines, m.renderStepHeader(i, st, now))
		if !st.Viewing {
			continue
		}

		if !m.logs.Has(st.Number) {
			if st.Status.Started() {
				lines = append(lines, dimStyle.Render("      fetching logs..."))
			} else {
				lines = append(lines, dimStyle.Render("      (not started)"))
			}
			layout.logEnd[st.Number] = len(lines) - 1
			continue
		}

		logLines := m.logs.Lines(st.Number)
		if len(logLines) == 0 || (len(logLines) == 1 && logLines[0] == "") {
			lines = append(lines, dimStyle.Render("      (no output)"))
			layout.logEnd[st.Number] = len(lines) - 1
			continue
		}
		for n, logLine := range logLines {
			text := "      " + logLine
			if st.LogFocus.Contains(n + 1) {
				lines = append(lines, focusLineStyle.Render(text))
			} else {
				lines = append(lines, logStyle.Render(text))
			}
		}
		layout.logEnd[st.Number] = len(lines) - 1
	}

	return strings.Join(lines, "\n"), layout
}

func (m uiModel) renderStepHeader(i int, st build.Step, now time.Time) string {
	cursor := "  "
	if i == m.cursor {
		cursor = "> "
	}
	marker := "▸"
	if st.Viewing {
		marker = "▾"
	}
	elapsed := "-"
	if st.Status.Started() {
		elapsed = shortDuration(stepDuration(st, now))
	}

	line := fmt.Sprintf("%s%s %2d  %-32s %-9s %8s",
		cursor, marker, st.Number, truncate(st.Name, 32), st.Status, elapsed)
	if st.Status == build.StatusFailure && st.ExitCode != 0 {
		line += fmt.Sprintf("  exit %d", st.ExitCode)
	}
	if st.Number == m.followingStep {
		line += "  " + followBadgeStyle.Render("following")
	}

	style := statusStyle(st.Status)
	if i == m.cursor {
		return style.Bold(true).Render(line)
	}
	return style.Render(line)
}

// --- Helpers ---

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes. This prevents terminal line
// wrapping when the window is resized narrower.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// firstLine returns the subject line of a commit message.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// buildDuration is the elapsed run time of a build at the given instant.
func buildDuration(b *build.Build, now time.Time) time.Duration {
	if b.Started == 0 {
		return 0
	}
	if b.Finished > 0 {
		return time.Duration(b.Finished-b.Started) * time.Second
	}
	return now.Sub(time.Unix(b.Started, 0)).Truncate(time.Second)
}

// stepDuration is the elapsed run time of a step at the given instant.
func stepDuration(st build.Step, now time.Time) time.Duration {
	if st.Started == 0 {
		return 0
	}
	if st.Finished > 0 {
		return time.Duration(st.Finished-st.Started) * time.Second
	}
	return now.Sub(time.Unix(st.Started, 0)).Truncate(time.Second)
}
