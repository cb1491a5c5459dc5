// Package tui provides the interactive Bubble Tea watch dashboard for costdeck.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"
	"github.com/theirongolddev/costdeck/internal/tui/components"
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// LoadFunc produces the session collection the dashboard renders. progress
// may be nil.
type LoadFunc func(ctx context.Context, now time.Time, progress pipeline.ProgressFunc) ([]model.SessionRecord, error)

// Options configures the dashboard.
type Options struct {
	Load            LoadFunc
	Pricing         pipeline.PricingResolver
	Budget          model.BudgetSettings
	RangeDays       int
	RefreshInterval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// DataLoadedMsg is sent when a load, initial or refresh, finishes.
type DataLoadedMsg struct {
	Sessions []model.SessionRecord
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports file parsing progress during the initial load.
type ProgressMsg struct {
	Current int
	Total   int
}

type refreshTickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	sessions []model.SessionRecord
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Derived on every load or range change
	costs     model.CostSnapshot
	budget    model.BudgetStatus
	forecast  model.BudgetForecast
	analytics model.AnalyticsReport
	recent    []sessionRow

	lastRefresh time.Time
	refreshing  bool

	// UI state
	width     int
	height    int
	activeTab int
	rangeDays int

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

type sessionRow struct {
	rec  model.SessionRecord
	cost float64
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	recentLimit      = 15
)

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pricing == nil {
		opts.Pricing = config.DefaultResolver()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	rangeDays := opts.RangeDays
	if !pipeline.ValidRange(rangeDays) {
		rangeDays = pipeline.ValidRanges[0]
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		opts:      opts,
		rangeDays: rangeDays,
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadDataCmd(a.opts.Load, a.opts.Now(), a.loadSub),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		first := !a.loaded
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.opts.Now()
		a.loadErr = msg.Err
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Msg("dashboard load failed")
		} else {
			a.sessions = msg.Sessions
		}
		a.recompute()
		if first {
			return a, refreshTickCmd(a.opts.RefreshInterval)
		}
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTickCmd(a.opts.RefreshInterval)}
		if !a.refreshing {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts.Load, a.opts.Now()))
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	switch key {
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts.Load, a.opts.Now())
		}
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "[":
		a.cycleRange(-1)
	case "]":
		a.cycleRange(1)
	default:
		if runes := []rune(key); len(runes) == 1 {
			if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a *App) cycleRange(dir int) {
	ranges := pipeline.ValidRanges
	i := slices.Index(ranges, a.rangeDays)
	i = (i + dir + len(ranges)) % len(ranges)
	a.rangeDays = ranges[i]
	a.recompute()
}

func (a *App) recompute() {
	now := a.opts.Now()

	a.costs = pipeline.AggregateCosts(a.sessions, a.opts.Pricing, now)
	a.budget = pipeline.EvaluateBudget(a.costs, a.opts.Budget)
	a.forecast = pipeline.Forecast(a.costs, a.opts.Budget, now)

	report, err := pipeline.Analyze(a.sessions, a.opts.Pricing, a.rangeDays, now)
	if err != nil {
		log.Error().Err(err).Int("range", a.rangeDays).Msg("analytics")
	}
	a.analytics = report

	rows := make([]sessionRow, 0, len(a.sessions))
	for _, s := range a.sessions {
		rows = append(rows, sessionRow{rec: s, cost: pipeline.SessionCost(s, a.opts.Pricing.Resolve(s.Model))})
	}
	slices.SortStableFunc(rows, func(x, y sessionRow) int {
		return y.rec.StartTime.Compare(x.rec.StartTime)
	})
	if len(rows) > recentLimit {
		rows = rows[:recentLimit]
	}
	a.recent = rows
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols).\n  costdeck needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) viewLoading() string {
	t := theme.Active

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Render("◈ costdeck"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	if a.progressMax > 0 {
		fmt.Fprintf(&b, " Parsing sessions %s / %s\n\n",
			cli.FormatNumber(int64(a.progress)), cli.FormatNumber(int64(a.progressMax)))
		b.WriteString(components.LoadingBar(a.progress, a.progressMax, 40))
	} else {
		b.WriteString(" Discovering sessions...")
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	cw := a.contentWidth()

	rangePill := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(fmt.Sprintf(" %dd ", a.rangeDays))
	header := components.RenderTabBar(a.activeTab) + "  " + rangePill

	right := fmt.Sprintf("updated %s (%.1fs)", a.lastRefresh.Format("15:04:05"), a.loadTime.Seconds())
	status := components.RenderStatusBar(a.width, right, a.refreshing)

	var content string
	switch a.activeTab {
	case 0:
		content = a.renderOverview(cw)
	case 1:
		content = a.renderModels(cw)
	case 2:
		content = a.renderAnalytics(cw)
	case 3:
		content = a.renderSessions(cw)
	}
	if a.loadErr != nil {
		errLine := lipgloss.NewStyle().Foreground(t.Red).Render(" load failed: " + a.loadErr.Error())
		content = errLine + "\n" + content
	}

	contentH := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(status))
	content = padHeight(truncateHeight(content, contentH), contentH)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, status)
}

func (a App) renderOverview(cw int) string {
	c, st, fc := a.costs, a.budget, a.forecast

	metrics := []components.Metric{
		{Label: "This month", Value: cli.FormatCost(c.CurrentMonthCost)},
		{Label: "Today", Value: cli.FormatCost(c.TodayCost), Note: fmt.Sprintf("%d active", len(c.ActiveSessionCosts))},
		{Label: "Projected", Value: cli.FormatCost(fc.ProjectedMonthly), Note: fmt.Sprintf("%d days left", fc.DaysRemaining)},
		{Label: "Budget", Value: cli.FormatBudgetState(st), Color: components.StateColor(st.State)},
	}
	if !st.Active {
		metrics[3].Color = theme.Active.TextMuted
	}

	out := components.MetricCardRow(metrics, cw)

	if a.opts.Budget.MonthlyLimit > 0 {
		inner := components.CardInnerWidth(cw)
		var b strings.Builder
		fmt.Fprintf(&b, "%s of %s\n", cli.FormatCost(c.CurrentMonthCost), cli.FormatCost(a.opts.Budget.MonthlyLimit))
		b.WriteString(components.BudgetBar(st, inner))
		fmt.Fprintf(&b, "\nburn %s/day · projected %s of limit",
			cli.FormatCost(fc.DailyBurnRate), cli.FormatPercent(fc.ProjectedPercentage))
		out += "\n" + components.ContentCard("Monthly budget", b.String(), cw)
	}

	daily := make([]float64, len(a.analytics.DailySessionCounts))
	for i, d := range a.analytics.DailySessionCounts {
		daily[i] = float64(d.Sessions)
	}
	spark := components.Sparkline(daily, theme.Active.Blue)
	out += "\n" + components.ContentCard(fmt.Sprintf("Sessions per day (%dd)", a.rangeDays), spark, cw)
	return out
}

func (a App) renderModels(cw int) string {
	if len(a.costs.CostByModel) == 0 {
		return components.ContentCard("Cost by model", "No usage this month.", cw)
	}

	tbl := cli.Table{Headers: []string{"Model", "Sessions", "Input", "Output", "Cached", "Cost"}}
	for _, mc := range a.costs.CostByModel {
		tbl.Rows = append(tbl.Rows, []string{
			truncStr(mc.ModelName, 28),
			cli.FormatNumber(int64(mc.SessionCount)),
			cli.FormatTokens(mc.InputTokens),
			cli.FormatTokens(mc.OutputTokens),
			cli.FormatTokens(mc.CachedTokens),
			cli.FormatCost(mc.Cost),
		})
	}
	return components.ContentCard("Cost by model (this month)", cli.RenderTable(tbl), cw)
}

func (a App) renderAnalytics(cw int) string {
	r := a.analytics
	t := theme.Active

	out := components.MetricCardRow([]components.Metric{
		{Label: "Sessions", Value: cli.FormatNumber(int64(r.Totals.SessionCount))},
		{Label: "Messages", Value: cli.FormatNumber(int64(r.Totals.MessageCount))},
		{Label: "Tool calls", Value: cli.FormatNumber(int64(r.Totals.ToolCallCount))},
		{Label: "Est. cost", Value: cli.FormatCost(r.Totals.EstimatedCost), Note: fmt.Sprintf("%.1f msgs/session", r.AverageMessagesPerSession)},
	}, cw)

	inner := components.CardInnerWidth(cw)
	values := make([]float64, len(r.DailySessionCounts))
	labels := make([]string, len(r.DailySessionCounts))
	for i, d := range r.DailySessionCounts {
		values[i] = float64(d.Sessions)
		labels[i] = fmt.Sprintf("%d", d.Date.Day())
	}
	out += "\n" + components.ContentCard("Daily sessions", components.BarChart(values, labels, t.Blue, inner, 6), cw)

	halves := components.LayoutRow(cw, 2)

	hourly := make([]float64, 24)
	for h, n := range r.HourlyActivity {
		hourly[h] = float64(n)
	}
	hourBody := components.Sparkline(hourly, t.Accent) + "\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("0     6     12    18   23")

	var top strings.Builder
	if len(r.TopProjects) == 0 {
		top.WriteString("No sessions in range.")
	}
	peak := 0.0
	if len(r.TopProjects) > 0 {
		peak = float64(r.TopProjects[0].Sessions)
	}
	barW := max(4, components.CardInnerWidth(halves[1])-24)
	for i, p := range r.TopProjects {
		if i > 0 {
			top.WriteByte('\n')
		}
		label := fmt.Sprintf("%-14s %4d", truncStr(p.Project, 14), p.Sessions)
		top.WriteString(cli.RenderHorizontalBar(label, float64(p.Sessions), peak, barW))
	}

	out += "\n" + components.CardRow([]string{
		components.ContentCard("Activity by hour", hourBody, halves[0]),
		components.ContentCard("Top projects", top.String(), halves[1]),
	})
	return out
}

func (a App) renderSessions(cw int) string {
	var out string

	active := a.costs.ActiveSessionCosts
	if len(active) == 0 {
		out = components.ContentCard("Active sessions", "No active sessions.", cw)
	} else {
		tbl := cli.Table{Headers: []string{"Session", "Project", "Model", "Cost"}}
		for _, s := range active {
			tbl.Rows = append(tbl.Rows, []string{
				shortID(s.SessionID), truncStr(s.ProjectName, 24), truncStr(s.Model, 24), cli.FormatCost(s.Cost),
			})
		}
		out = components.ContentCard("Active sessions", cli.RenderTable(tbl), cw)
	}

	if len(a.recent) > 0 {
		tbl := cli.Table{Headers: []string{"Started", "Project", "Model", "Msgs", "Duration", "Cost"}}
		for _, r := range a.recent {
			tbl.Rows = append(tbl.Rows, []string{
				r.rec.StartTime.In(a.opts.Now().Location()).Format("01-02 15:04"),
				truncStr(r.rec.ProjectName, 20),
				truncStr(r.rec.Model, 22),
				cli.FormatNumber(int64(r.rec.Stats.MessageCount)),
				cli.FormatDuration(r.rec.Stats.Duration),
				cli.FormatCost(r.cost),
			})
		}
		out += "\n" + components.ContentCard("Recent sessions", cli.RenderTable(tbl), cw)
	}
	return out
}

// loadDataCmd runs the initial load in a goroutine and streams ProgressMsg
// updates followed by a final DataLoadedMsg through sub.
func loadDataCmd(load LoadFunc, now time.Time, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking: a dropped update is superseded by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			sessions, err := load(context.Background(), now, progressFn)
			sub <- DataLoadedMsg{Sessions: sessions, Err: err, LoadTime: time.Since(start)}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads sessions in the background without progress UI.
func refreshDataCmd(load LoadFunc, now time.Time) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sessions, err := load(context.Background(), now, nil)
		return DataLoadedMsg{Sessions: sessions, Err: err, LoadTime: time.Since(start)}
	}
}

func refreshTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
