package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"review-simulator/internal/dashboard"
	"review-simulator/internal/simulator"
	"review-simulator/internal/wizard"
)

const maxListed = 8

// Report renders v without colors or input widgets, for non-interactive output.
func Report(v wizard.PhaseView) string {
	m := Model{
		styles:  plainStyles(),
		url:     textinput.New(),
		spinner: spinner.New(),
		bar:     progress.New(progress.WithWidth(30), progress.WithoutPercentage(), progress.WithFillCharacters('#', '.')),
	}
	m.url.Prompt = "URL: "
	if v.Product != nil {
		m.url.SetValue(v.Product.URL)
	}
	return m.render(v)
}

func (m Model) render(v wizard.PhaseView) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Product Review Simulator"))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderSteps(v.Steps))
	sb.WriteString("\n\n")

	if v.Error != nil {
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("✗ %s", v.Error.Message)))
		if v.Error.Details != "" {
			sb.WriteString(m.styles.Muted.Render(" (" + v.Error.Details + ")"))
		}
		sb.WriteString(m.styles.Muted.Render("  esc to dismiss"))
		sb.WriteString("\n\n")
	}
	if v.Notice != nil {
		sb.WriteString(m.styles.Success.Render("✓ " + v.Notice.Message))
		sb.WriteString("\n\n")
	}
	if v.Celebrating {
		sb.WriteString(m.styles.Celebrate.Render("★ ★ ★  Reviews are in!  ★ ★ ★"))
		sb.WriteString("\n\n")
	}
	if len(v.Busy) > 0 {
		labels := make([]string, 0, len(v.Busy))
		for _, a := range v.Busy {
			labels = append(labels, strings.ReplaceAll(string(a), "_", " "))
		}
		sb.WriteString(m.spinner.View() + " " + m.styles.Muted.Render(strings.Join(labels, ", ")+"..."))
		sb.WriteString("\n\n")
	}

	switch {
	case v.Product != nil:
		sb.WriteString(m.renderProduct(v.Product))
	case v.Config != nil:
		sb.WriteString(m.renderConfig(v.Config))
	case v.Profiles != nil:
		sb.WriteString(m.renderProfiles(v.Profiles))
	case v.Reviews != nil:
		sb.WriteString(m.renderReviews(v.Reviews))
	case v.Dashboard != nil:
		sb.WriteString(m.renderDashboard(v.Dashboard))
	}

	sb.WriteString(m.styles.Footer.Render(m.help(v.Phase)))
	return sb.String()
}

func (m Model) renderSteps(steps []wizard.Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		label := fmt.Sprintf("%d %s", s.Index+1, s.Label)
		switch {
		case s.Active:
			parts = append(parts, m.styles.StepActive.Render(label))
		case s.Completed:
			parts = append(parts, m.styles.StepDone.Render("✓ "+s.Label))
		default:
			parts = append(parts, m.styles.StepTodo.Render(label))
		}
	}
	return strings.Join(parts, m.styles.Muted.Render("  ›  "))
}

func (m Model) help(phase string) string {
	switch phase {
	case "product":
		return "enter analyze/continue • → continue • ctrl+r reset • ctrl+c quit"
	case "dashboard":
		return "← back • r restart • ctrl+r reset • q quit"
	default:
		return "enter generate • ← back • → continue • r restart • ctrl+r reset • q quit"
	}
}

func (m Model) renderProduct(v *wizard.ProductView) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Product"))
	sb.WriteString("\n")
	sb.WriteString(m.url.View())
	sb.WriteString("\n\n")
	if !v.Analyzed {
		sb.WriteString(m.styles.Muted.Render("Paste a product page URL and press enter."))
		sb.WriteString("\n")
		return sb.String()
	}

	p := v.Product
	lines := []string{m.styles.Bold.Render(p.Name)}
	if p.Price != "" || p.Category != "" {
		lines = append(lines, m.styles.Muted.Render(strings.TrimSpace(p.Price+"  "+p.Category)))
	}
	if p.Description != "" {
		lines = append(lines, "", truncate(p.Description, 400))
	}
	if len(p.MainFeatures) > 0 {
		lines = append(lines, "", m.styles.Bold.Render("Features"))
		for _, f := range p.MainFeatures {
			lines = append(lines, fmt.Sprintf("• %s: %s", f.Feature, f.Value))
		}
	}
	if len(p.TechnicalSpecs) > 0 {
		lines = append(lines, "", m.styles.Bold.Render("Specifications"))
		for _, s := range p.TechnicalSpecs {
			lines = append(lines, fmt.Sprintf("• %s: %s", s.Spec, s.Value))
		}
	}
	sb.WriteString(m.styles.Card.Render(strings.Join(lines, "\n")))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderConfig(v *wizard.ConfigView) string {
	c := v.Config
	d := c.Demographics
	rows := [][2]string{
		{"Reviewers", fmt.Sprintf("%d (population %d-%d)", v.ReviewerCount, c.PopulationRange.Min(), c.PopulationRange.Max())},
		{"Positivity", rangeText(c.PositivityBias)},
		{"Verbosity", rangeText(c.Verbosity)},
		{"Detail", rangeText(c.DetailLevel)},
		{"Age", rangeText(d.AgeRange)},
		{"Education", educationText(d)},
		{"Gender", d.GenderRatio},
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Configuration"))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-12s %s\n", r[0], r[1]))
	}
	if v.HasProfiles {
		sb.WriteString("\n" + m.styles.Muted.Render("Profiles already generated; → to view them, enter to regenerate."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderProfiles(v *wizard.ProfilesView) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("Reviewer profiles (%d)", len(v.Bots))))
	sb.WriteString("\n")
	for i, card := range v.Bots {
		if i == maxListed {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("... and %d more", len(v.Bots)-maxListed)))
			sb.WriteString("\n")
			break
		}
		b := card.Bot
		sb.WriteString(fmt.Sprintf("%s %s, %d, %s, %s\n", m.styles.Bold.Render(b.Name), b.Gender, b.Age, b.Location, b.EducationLevel))
		if b.Bio != "" {
			sb.WriteString("  " + m.styles.Muted.Render(truncate(b.Bio, 120)) + "\n")
		}
	}
	return sb.String()
}

func (m Model) renderReviews(v *wizard.ReviewsView) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("Reviews (%d)", v.Stats.Count)))
	sb.WriteString("  ")
	sb.WriteString(m.styles.Stars.Render(stars(v.Stats.Stars)) + " " + v.Stats.Label)
	sb.WriteString("\n")
	for i, card := range v.Reviews {
		if i == maxListed {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("... and %d more", len(v.Reviews)-maxListed)))
			sb.WriteString("\n")
			break
		}
		author := "Unknown reviewer"
		if card.Reviewer != nil {
			author = card.Reviewer.Name
		}
		r := card.Review
		sb.WriteString(fmt.Sprintf("%s %s by %s\n", m.styles.Stars.Render(stars(r.Rating)), m.styles.Bold.Render(r.Title), author))
		if r.Content != "" {
			sb.WriteString("  " + truncate(r.Content, 160) + "\n")
		}
	}
	return sb.String()
}

func (m Model) renderDashboard(v *wizard.DashboardView) string {
	a := v.Analysis
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Dashboard: " + v.Product.Name))
	sb.WriteString("\n")
	d := v.Demographics
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Reviewers aged %s, education %s, %s", rangeText(d.AgeRange), educationText(d), d.GenderRatio)))
	sb.WriteString("\n\n")
	if !a.HasData {
		sb.WriteString(m.styles.Muted.Render("The analysis came back empty."))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Average %s %s from %d ratings\n\n", a.AverageLabel, m.styles.Stars.Render(stars(int(a.AverageRating+0.5))), a.TotalRatings))
	for _, bar := range a.Distribution {
		sb.WriteString(fmt.Sprintf("%d★ %s %3d (%.0f%%)\n", bar.Stars, m.bar.ViewAs(bar.Percent/100), bar.Count, bar.Percent))
	}

	s := a.Sentiment
	sentiment := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Positive.Render(fmt.Sprintf("positive %.0f%%", s.PositivePercent)), "  ",
		m.styles.Neutral.Render(fmt.Sprintf("neutral %.0f%%", s.NeutralPercent)), "  ",
		m.styles.Negative.Render(fmt.Sprintf("negative %.0f%%", s.NegativePercent)),
	)
	sb.WriteString("\n" + sentiment)
	if s.Estimated {
		sb.WriteString(m.styles.Muted.Render("  (estimated)"))
	}
	sb.WriteString("\n")

	if len(a.Keywords) > 0 {
		words := make([]string, 0, len(a.Keywords))
		for _, k := range a.Keywords {
			words = append(words, m.keywordStyle(k).Render(k.Word))
		}
		sb.WriteString("\n" + strings.Join(words, " ") + "\n")
	}
	sb.WriteString(m.points("Strengths", a.PositivePoints))
	sb.WriteString(m.points("Weaknesses", a.NegativePoints))
	sb.WriteString(m.points("Demographics", a.DemographicInsights))
	return sb.String()
}

func (m Model) keywordStyle(k dashboard.Keyword) lipgloss.Style {
	style := m.styles.Neutral
	switch k.Sentiment {
	case simulator.SentimentPositive:
		style = m.styles.Positive
	case simulator.SentimentNegative:
		style = m.styles.Negative
	}
	if k.Scale >= 1.1 {
		style = style.Bold(true)
	}
	return style
}

func (m Model) points(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n" + m.styles.Bold.Render(title) + "\n")
	for _, it := range items {
		sb.WriteString("• " + it + "\n")
	}
	return sb.String()
}

func educationText(d simulator.DemographicConfig) string {
	if d.EducationRange != nil {
		return fmt.Sprintf("%d-%d years", d.EducationRange.Min(), d.EducationRange.Max())
	}
	return d.EducationLevel
}

func rangeText(r simulator.Range) string {
	return fmt.Sprintf("%d-%d", r.Min(), r.Max())
}

func stars(n int) string {
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit-1]) + "…"
}
