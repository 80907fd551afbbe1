package query

import "strings"

// Keys the Navigator reacts to.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeySlash     = "/"
)

// Target describes the element that has focus when a key is pressed.
type Target struct {
	Tag             string
	ContentEditable bool
}

// Typing reports whether keystrokes on the target produce text.
func (t Target) Typing() bool {
	switch strings.ToUpper(t.Tag) {
	case "INPUT", "TEXTAREA":
		return true
	}
	return t.ContentEditable
}

// KeyEvent is one key press.
type KeyEvent struct {
	Key    string
	Target Target

	Alt, Ctrl, Meta, Shift bool
}

func (e KeyEvent) modified() bool {
	return e.Alt || e.Ctrl || e.Meta || e.Shift
}

// ActionKind is what the surface should do after a key press.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionOpen
	ActionClose
	ActionClearQuery
	ActionFocus
	ActionNavigate
)

func (k ActionKind) String() string {
	switch k {
	case ActionOpen:
		return "open"
	case ActionClose:
		return "close"
	case ActionClearQuery:
		return "clear_query"
	case ActionFocus:
		return "focus"
	case ActionNavigate:
		return "navigate"
	default:
		return "none"
	}
}

// Action is the result of Key. URL is set for ActionNavigate.
type Action struct {
	Kind ActionKind
	URL  string
}

// Navigator is the keyboard state machine of the search modal.
type Navigator struct {
	open    bool
	query   string
	results []Entry
	focus   int

	offset int
	height int

	onClose func()
}

// NewNavigator creates a closed Navigator. onClose runs whenever the
// modal closes and may be nil.
func NewNavigator(onClose func()) *Navigator {
	return &Navigator{focus: -1, onClose: onClose}
}

// IsOpen reports whether the modal is open.
func (n *Navigator) IsOpen() bool { return n.open }

// Query returns the current query text.
func (n *Navigator) Query() string { return n.query }

// Results returns the displayed results.
func (n *Navigator) Results() []Entry { return n.results }

// FocusIndex returns the focused row, or -1 with no results.
func (n *Navigator) FocusIndex() int { return n.focus }

// Focused returns the focused entry.
func (n *Navigator) Focused() (Entry, bool) {
	if n.focus < 0 || n.focus >= len(n.results) {
		return Entry{}, false
	}
	return n.results[n.focus], true
}

// Viewport returns the first visible row and the number of visible rows.
func (n *Navigator) Viewport() (offset, height int) { return n.offset, n.height }

// SetViewportHeight sets how many rows are visible.
func (n *Navigator) SetViewportHeight(h int) {
	n.height = max(h, 0)
	n.EnsureVisible()
}

// Open opens the modal.
func (n *Navigator) Open() { n.open = true }

// Close closes the modal, clearing the query and results.
func (n *Navigator) Close() {
	n.open = false
	n.query = ""
	n.SetResults(nil)
	if n.onClose != nil {
		n.onClose()
	}
}

// SetQuery records the query text.
func (n *Navigator) SetQuery(q string) { n.query = q }

// SetResults replaces the results and focuses the first one.
func (n *Navigator) SetResults(entries []Entry) {
	n.results = entries
	n.offset = 0
	n.focus = -1
	if len(entries) > 0 {
		n.focus = 0
	}
}

// SetFocus focuses row i, as on mouse hover. Out of range indexes are ignored.
func (n *Navigator) SetFocus(i int) {
	if i < 0 || i >= len(n.results) {
		return
	}
	n.focus = i
	n.EnsureVisible()
}

// Key handles one key press.
func (n *Navigator) Key(e KeyEvent) Action {
	if !n.open {
		if e.Key == KeySlash && !e.modified() && !e.Target.Typing() {
			n.Open()
			return Action{Kind: ActionOpen}
		}
		return Action{}
	}

	switch e.Key {
	case KeyArrowDown:
		return n.move(1)
	case KeyArrowUp:
		return n.move(-1)
	case KeyEnter:
		entry, ok := n.Focused()
		if !ok {
			return Action{}
		}
		return Action{Kind: ActionNavigate, URL: NavigationTarget(entry.URL)}
	case KeyEscape:
		if n.query != "" {
			n.query = ""
			n.SetResults(nil)
			return Action{Kind: ActionClearQuery}
		}
		n.Close()
		return Action{Kind: ActionClose}
	}
	return Action{}
}

func (n *Navigator) move(delta int) Action {
	if len(n.results) == 0 {
		return Action{}
	}
	n.focus = min(max(n.focus+delta, 0), len(n.results)-1)
	n.EnsureVisible()
	return Action{Kind: ActionFocus}
}

// EnsureVisible scrolls the viewport only when the focused row is hidden
// above or below it.
func (n *Navigator) EnsureVisible() {
	if n.focus < 0 || n.height <= 0 {
		return
	}
	switch {
	case n.focus < n.offset:
		n.offset = n.focus
	case n.focus >= n.offset+n.height:
		n.offset = n.focus - n.height + 1
	}
}
