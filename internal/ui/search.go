package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/docindex/internal/query"
)

// rowHeight is the number of lines one result occupies in the list.
const rowHeight = 2

// PreviewSource loads the preview for a focused result.
type PreviewSource interface {
	Preview(ctx context.Context, entry query.Entry) query.Preview
}

// SearchOptions configures the interactive search model.
type SearchOptions struct {
	Search         query.SearchFunc
	Previews       PreviewSource // Optional; nil hides the preview pane
	MinQueryLength int
	Window         time.Duration
	NoColor        bool
	Placeholder    string
}

// SearchModel is the bubbletea model behind `docindex search`. Typing is
// debounced into searches, arrow keys move the focus and enter selects.
type SearchModel struct {
	ctx       context.Context
	input     textinput.Model
	spinner   spinner.Model
	debouncer *query.Debouncer
	nav       *query.Navigator
	previews  PreviewSource
	styles    Styles
	minLen    int

	width   int
	height  int
	pending bool
	preview query.Preview
	err     error
	chosen  string
	closed  bool
}

type searchUpdateMsg query.Update

type previewMsg query.Preview

// NewSearchModel creates a search model. Close must be called once the
// program exits.
func NewSearchModel(ctx context.Context, opts SearchOptions) *SearchModel {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = opts.Placeholder
	if in.Placeholder == "" {
		in.Placeholder = "Search docs"
	}
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = query.DefaultMinQueryLength
	}

	m := &SearchModel{
		ctx:     ctx,
		input:   in,
		spinner: s,
		debouncer: query.NewDebouncer(opts.Search, query.DebounceOptions{
			Window:         opts.Window,
			MinQueryLength: opts.MinQueryLength,
		}),
		previews: opts.Previews,
		styles:   GetStyles(opts.NoColor || DetectNoColor()),
		minLen:   opts.MinQueryLength,
		width:    100,
		height:   24,
	}
	m.nav = query.NewNavigator(func() { m.closed = true })
	m.nav.Open()
	m.nav.SetViewportHeight(m.listRows())
	return m
}

// Selected returns the navigation target chosen with enter, if any.
func (m *SearchModel) Selected() string { return m.chosen }

// Navigator exposes the focus state.
func (m *SearchModel) Navigator() *query.Navigator { return m.nav }

// Close stops pending searches.
func (m *SearchModel) Close() { m.debouncer.Stop() }

// Init implements tea.Model.
func (m *SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForUpdate())
}

func (m *SearchModel) waitForUpdate() tea.Cmd {
	results := m.debouncer.Results()
	return func() tea.Msg {
		u, ok := <-results
		if !ok {
			return nil
		}
		return searchUpdateMsg(u)
	}
}

func (m *SearchModel) loadPreview() tea.Cmd {
	entry, ok := m.nav.Focused()
	if !ok || m.previews == nil {
		return nil
	}
	ctx, previews := m.ctx, m.previews
	return func() tea.Msg {
		return previewMsg(previews.Preview(ctx, entry))
	}
}

// Update implements tea.Model.
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(m.width/2-6, 10)
		m.nav.SetViewportHeight(m.listRows())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchUpdateMsg:
		m.pending = false
		m.err = msg.Err
		if msg.Err == nil {
			m.nav.SetResults(msg.Entries)
		}
		m.preview = query.Preview{}
		return m, tea.Batch(m.waitForUpdate(), m.loadPreview())

	case previewMsg:
		if entry, ok := m.nav.Focused(); ok && entry.URL == msg.URL {
			m.preview = query.Preview(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var key string
	switch msg.Type {
	case tea.KeyCtrlC:
		m.closed = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyCtrlP:
		key = query.KeyArrowUp
	case tea.KeyDown, tea.KeyCtrlN:
		key = query.KeyArrowDown
	case tea.KeyEnter:
		key = query.KeyEnter
	case tea.KeyEsc:
		key = query.KeyEscape
	}

	if key == "" {
		return m.handleTyping(msg)
	}

	action := m.nav.Key(query.KeyEvent{Key: key, Target: query.Target{Tag: "INPUT"}})
	switch action.Kind {
	case query.ActionFocus:
		m.preview = query.Preview{}
		return m, m.loadPreview()
	case query.ActionNavigate:
		m.chosen = action.URL
		return m, tea.Quit
	case query.ActionClearQuery:
		m.input.SetValue("")
		m.preview = query.Preview{}
		m.pending = false
		m.debouncer.Submit("")
		return m, nil
	case query.ActionClose:
		return m, tea.Quit
	}
	return m, nil
}

func (m *SearchModel) handleTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if q := m.input.Value(); q != before {
		m.nav.SetQuery(q)
		m.debouncer.Submit(q)
		m.pending = len([]rune(strings.TrimSpace(q))) >= m.minLen
	}
	return m, cmd
}

// listRows is the number of results that fit in the list pane.
func (m *SearchModel) listRows() int {
	// Header, input, separator and status bar.
	return max((m.height-4)/rowHeight, 1)
}

// View implements tea.Model.
func (m *SearchModel) View() string {
	if m.closed && m.chosen == "" {
		return ""
	}

	listWidth := m.width
	if m.previews != nil {
		listWidth = max(m.width/2, 30)
	}

	header := m.styles.Header.Render("docindex search")
	input := m.input.View()
	if m.pending {
		input += " " + m.spinner.View()
	}

	body := m.renderList(listWidth)
	if m.previews != nil {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderPreview(max(m.width-listWidth-2, 20)))
	}

	return strings.Join([]string{
		header,
		input,
		m.styles.Border.Render(strings.Repeat("─", max(m.width-2, 10))),
		body,
		m.renderStatus(),
	}, "\n")
}

func (m *SearchModel) renderList(width int) string {
	results := m.nav.Results()
	if m.err != nil {
		return m.styles.Error.Render("✗ " + m.err.Error())
	}
	if len(results) == 0 {
		switch {
		case m.pending:
			return m.styles.Dim.Render("Searching…")
		case len([]rune(strings.TrimSpace(m.input.Value()))) < m.minLen:
			return m.styles.Dim.Render("Type to search")
		}
		return m.styles.Label.Render("No results")
	}

	offset, height := m.nav.Viewport()
	end := min(offset+height, len(results))

	var rows []string
	for i := offset; i < end; i++ {
		e := results[i]
		title := truncate(e.Title, width-4)
		crumb := truncate(e.Breadcrumb, width-4)
		row := m.styles.Title.Render(title) + "\n" + m.styles.Breadcrumb.Render(crumb)
		if i == m.nav.FocusIndex() {
			row = m.styles.Selected.Render(row)
		} else {
			row = lipgloss.NewStyle().PaddingLeft(2).Render(row)
		}
		rows = append(rows, row)
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(rows, "\n"))
}

func (m *SearchModel) renderPreview(width int) string {
	entry, ok := m.nav.Focused()
	if !ok {
		return ""
	}

	text := m.preview.Text
	if m.preview.URL == "" {
		text = entry.Excerpt
	}

	lines := []string{
		m.styles.Title.Render(truncate(entry.PageTitle, width-4)),
		m.styles.Dim.Render(truncate(entry.URL, width-4)),
		"",
		m.styles.Excerpt.Render(text),
	}
	content := strings.Join(lines, "\n")

	maxLines := max(m.height-6, 3)
	style := m.styles.Preview.Width(width - 2).MaxHeight(maxLines)
	return style.Render(content)
}

func (m *SearchModel) renderStatus() string {
	var parts []string
	if n := len(m.nav.Results()); n > 0 {
		parts = append(parts, m.styles.Label.Render(fmt.Sprintf("%d / %d", m.nav.FocusIndex()+1, n)))
	}
	parts = append(parts, m.styles.Dim.Render("↑↓ move  enter open  esc clear/quit"))
	return strings.Join(parts, m.styles.Dim.Render("  │  "))
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunSearch runs the model full screen on out and returns the selected
// navigation target, or "" when the user quit without choosing.
func RunSearch(ctx context.Context, out io.Writer, m *SearchModel) (string, error) {
	defer m.Close()

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if f, ok := out.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return "", err
	}
	return m.Selected(), nil
}
