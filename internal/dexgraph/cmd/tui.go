package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"dexgraph/internal/config"
	"dexgraph/internal/core"
	"dexgraph/internal/dexgraph/styles"
	"dexgraph/internal/dump"
	"dexgraph/internal/logging"
	"dexgraph/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewClasses
	viewMethods
)

type classItem struct {
	class   *core.ClassNode
	methods int
	base    string
}

func newClassItem(c *core.ClassNode) classItem {
	item := classItem{class: c, methods: len(c.AllMethods())}
	if b := c.BaseType(); b != nil {
		item.base = b.Name()
	}
	return item
}

func (i classItem) Title() string       { return i.class.Name() }
func (i classItem) Description() string { return "" }
func (i classItem) FilterValue() string { return i.class.Name() }

// classDelegate renders one class per line with its base type and method
// count.
type classDelegate struct{}

func (d classDelegate) Height() int                               { return 1 }
func (d classDelegate) Spacing() int                              { return 0 }
func (d classDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d classDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(classItem)
	if !ok {
		return
	}

	indicator := " "
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.ClassColor.Hex()))
	if index == m.Index() {
		indicator = ">"
		nameStyle = nameStyle.Bold(true)
	}
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	line := fmt.Sprintf(" %s  %s", indicator, nameStyle.Render(i.class.Name()))
	if i.base != "" && i.base != core.ObjectName {
		line += mutedStyle.Render(" : " + i.base)
	}
	line += mutedStyle.Render(fmt.Sprintf("  (%d)", i.methods))
	fmt.Fprint(w, line)
}

type model struct {
	summary   viewport.Model
	classList list.Model
	methods   viewport.Model
	spinner   spinner.Model
	mode      viewMode
	cfg       *config.Config
	path      string
	digest    string
	loading   bool
	err       error
	result    *analysis
	selected  *core.ClassNode
	width     int
	height    int
}

type digestMsg struct {
	digest string
}

type loadedMsg struct {
	result *analysis
	err    error
}

func calculateDigestCmd(path string) tea.Cmd {
	return func() tea.Msg {
		d, err := dump.FileDigest(path)
		if err != nil {
			return digestMsg{digest: fmt.Sprintf("error: %v", err)}
		}
		return digestMsg{digest: d}
	}
}

// loadCmd runs the analysis off the UI goroutine. Session logs would tear
// the alternate screen, so they are dropped unless routed to a file.
func loadCmd(cfg *config.Config, path string) tea.Cmd {
	return func() tea.Msg {
		logger := logging.Discard()
		if os.Getenv("DEXGRAPH_LOG_TO_FILE") == "1" {
			logger = logging.NewLogger().Logger
		}
		a, err := analyze(context.Background(), cfg, path, logger)
		return loadedMsg{result: a, err: err}
	}
}

func NewModel(cfg *config.Config, path string) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	classList := list.New([]list.Item{}, classDelegate{}, 80, 24)
	classList.SetShowStatusBar(false)
	classList.SetFilteringEnabled(true)
	classList.Title = "Classes"
	classList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	classList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	mvp := viewport.New()
	mvp.SetWidth(80)
	mvp.SetHeight(24)

	m := model{
		summary:   vp,
		classList: classList,
		methods:   mvp,
		spinner:   s,
		mode:      viewSummary,
		cfg:       cfg,
		path:      path,
		loading:   true,
		width:     80,
		height:    24,
	}
	m.updateSummary()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		calculateDigestCmd(m.path),
		loadCmd(m.cfg, m.path),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case digestMsg:
		m.digest = msg.digest
		m.updateSummary()
		return m, nil

	case loadedMsg:
		m.loading = false
		m.result, m.err = msg.result, msg.err
		if m.result != nil {
			m.updateClassList()
		}
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateSummary()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.summary.SetWidth(msg.Width)
			m.summary.SetHeight(msg.Height - 2)
			m.classList.SetWidth(msg.Width)
			m.classList.SetHeight(msg.Height - 2)
			m.methods.SetWidth(msg.Width)
			m.methods.SetHeight(msg.Height - 2)
			m.updateSummary()
		}

	case tea.KeyMsg:
		filtering := m.mode == viewClasses && m.classList.FilterState() == list.Filtering
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !filtering {
				return m, tea.Quit
			}
		case "enter":
			if m.mode == viewClasses && !filtering {
				if item, ok := m.classList.SelectedItem().(classItem); ok {
					m.showClass(item.class)
				}
				return m, nil
			}
		case "esc":
			if m.mode == viewMethods {
				m.mode = viewClasses
				return m, nil
			}
		case "tab":
			if !filtering {
				m.mode = m.nextMode(1)
				return m, nil
			}
		case "shift+tab":
			if !filtering {
				m.mode = m.nextMode(-1)
				return m, nil
			}
		}
	}

	switch m.mode {
	case viewClasses:
		m.classList, cmd = m.classList.Update(msg)
	case viewMethods:
		m.methods, cmd = m.methods.Update(msg)
	default:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

// nextMode cycles through the views that have content.
func (m model) nextMode(step int) viewMode {
	modes := []viewMode{viewSummary}
	if len(m.classList.Items()) > 0 {
		modes = append(modes, viewClasses)
	}
	if m.selected != nil {
		modes = append(modes, viewMethods)
	}
	for i, mode := range modes {
		if mode == m.mode {
			return modes[(i+step+len(modes))%len(modes)]
		}
	}
	return viewSummary
}

func (m *model) showClass(c *core.ClassNode) {
	var b strings.Builder
	if err := dump.Class(&b, c); err != nil {
		return
	}
	text := b.String()
	if colored, err := colorize.Text(text); err == nil {
		text = colored
	}
	m.selected = c
	m.methods.SetContent(strings.TrimSuffix(text, "\n"))
	m.methods.GotoTop()
	m.mode = viewMethods
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewClasses:
		content = m.classList.View()
	case viewMethods:
		content = m.methods.View()
	default:
		content = m.summary.View()
	}

	var menu string
	switch m.mode {
	case viewClasses:
		menu = " Enter: methods • /: filter • Tab: cycle • Q: quit "
	case viewMethods:
		menu = " Esc: classes • Tab: cycle • Q: quit "
	default:
		if len(m.classList.Items()) > 0 {
			menu = " Tab: classes • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *model) updateClassList() {
	classes := dump.Classes(m.result.Scope(), dump.Options{})
	items := make([]list.Item, 0, len(classes))
	for _, c := range classes {
		items = append(items, newClassItem(c))
	}
	m.classList.SetItems(items)
	m.classList.Title = fmt.Sprintf("Classes (%d total)", len(items))
}

func (m *model) updateSummary() {
	width := m.width
	if width == 0 {
		width = 80
	}
	rendered := styles.Render(m.summaryMarkdown(), width-2)
	m.summary.SetContent(strings.TrimSuffix(rendered, "\n"))
}

func (m *model) summaryMarkdown() string {
	relPath := m.path
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.path); err == nil {
			relPath = rel
		}
	}

	var lines []string
	if dir := pathpkg.Dir(relPath); dir != "." {
		lines = append(lines, fmt.Sprintf("; %s/", dir))
	}
	lines = append(lines, fmt.Sprintf("; %s", pathpkg.Base(relPath)))
	if m.digest != "" {
		lines = append(lines, fmt.Sprintf("; %s", m.digest))
	}
	md := fmt.Sprintf("# dexgraph\n\n```\n%s\n```", strings.Join(lines, "\n"))

	switch {
	case m.loading:
		md += fmt.Sprintf("\n\n%s Loading classes...", m.spinner.View())
	case m.err != nil:
		md += fmt.Sprintf("\n\n> %v", m.err)
	case m.result != nil:
		md += "\n\n" + summaryTable(m.result)
	}
	return md
}

// summaryTable renders the load statistics of a as markdown.
func summaryTable(a *analysis) string {
	st := a.Stats
	rows := [][2]string{
		{"Classes", fmt.Sprint(st.Classes)},
		{"Methods", fmt.Sprint(st.Methods)},
		{"Translated", fmt.Sprint(st.Translated)},
		{"Failed", fmt.Sprint(st.Failed)},
		{"Calls resolved", fmt.Sprint(st.Calls.Resolved)},
		{"Calls via synthetic", fmt.Sprint(st.Calls.Synthetic)},
		{"Calls unresolved", fmt.Sprint(st.Calls.Unresolved)},
	}
	if a.Framework > 0 {
		rows = append(rows, [2]string{"Framework classes", fmt.Sprint(a.Framework)})
	}
	var b strings.Builder
	b.WriteString("## Load\n\n| | |\n|---|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], r[1])
	}
	return b.String()
}
