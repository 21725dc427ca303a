// Package tui is the terminal front-end: it draws the grid, the turn log and
// the census, and turns key presses into player intents.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/talgya/lifegrid/internal/engine"
	"github.com/talgya/lifegrid/internal/snapshot"
	"github.com/talgya/lifegrid/internal/world"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	gridStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	panelStyle  = lipgloss.NewStyle().PaddingLeft(2)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

const emptyCell = "· "

var arrows = map[string]world.Direction{
	"up":    world.Up,
	"down":  world.Down,
	"left":  world.Left,
	"right": world.Right,
}

// Model is the bubbletea model for one interactive session.
type Model struct {
	eng         *engine.Engine
	snapshotDir string
	newSeed     func() int64

	status string
}

// New returns a model driving eng. Snapshots go to snapshotDir; newSeed picks
// the seed for a new game.
func New(eng *engine.Engine, snapshotDir string, newSeed func() int64) Model {
	return Model{
		eng:         eng,
		snapshotDir: snapshotDir,
		newSeed:     newSeed,
		status:      "arrows steer, space advances a turn",
	}
}

// turnMsg carries the result of one stepped turn.
type turnMsg struct {
	sum engine.Summary
	err error
}

func (m Model) stepCmd() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		sum, err := eng.Step(context.Background())
		return turnMsg{sum: sum, err: err}
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case turnMsg:
		if msg.err != nil {
			m.status = "turn failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("turn %s done, %d events", humanize.Comma(int64(msg.sum.Turn)), len(msg.sum.Events))
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if d, ok := arrows[key]; ok {
		var steered bool
		m.eng.Do(func(w *world.World) error {
			steered = w.Steer(d)
			return nil
		})
		if steered {
			m.status = "heading " + d.String()
		} else {
			m.status = "no player to steer"
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "enter":
		return m, m.stepCmd()
	case "i":
		var armed, ok bool
		m.eng.Do(func(w *world.World) error {
			if ok = w.ToggleAbility(); ok {
				p, _ := w.Player()
				armed = p.Ability.Armed
			}
			return nil
		})
		switch {
		case !ok:
			m.status = "no ability to arm"
		case armed:
			m.status = "ability armed for next turn"
		default:
			m.status = "ability disarmed"
		}
	case "n":
		seed := m.newSeed()
		if err := m.eng.NewGame(seed); err != nil {
			m.status = "new game failed: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("new game, seed %d", seed)
	case "s":
		m.status = m.save()
	case "l":
		m.status = m.load()
	}
	return m, nil
}

func (m Model) save() string {
	st, err := m.eng.State()
	if err != nil {
		return "save failed: " + err.Error()
	}
	path := snapshot.Path(m.snapshotDir, st.ID, st.Turn)
	if err := snapshot.Write(path, st); err != nil {
		slog.Error("snapshot write", "path", path, "error", err)
		return "save failed: " + err.Error()
	}
	size := ""
	if fi, err := os.Stat(path); err == nil {
		size = " (" + humanize.Bytes(uint64(fi.Size())) + ")"
	}
	return fmt.Sprintf("saved turn %d%s", st.Turn, size)
}

func (m Model) load() string {
	entry, ok, err := snapshot.Latest(m.snapshotDir)
	if err != nil {
		return "load failed: " + err.Error()
	}
	if !ok {
		return "no snapshot to load"
	}
	st, err := snapshot.Read(entry.Path)
	if err != nil {
		return "load failed: " + err.Error()
	}
	if err := m.eng.Restore(st); err != nil {
		return "load failed: " + err.Error()
	}
	return fmt.Sprintf("loaded turn %d (%s)", st.Turn, humanize.Bytes(uint64(entry.Size)))
}

func (m Model) View() string {
	var grid, side strings.Builder
	m.eng.Do(func(w *world.World) error {
		for y := 0; y < w.Height(); y++ {
			for x := 0; x < w.Width(); x++ {
				t, _ := w.Tile(x, y)
				if o, ok := w.OccupantOf(t); ok {
					grid.WriteString(o.Symbol())
				} else {
					grid.WriteString(emptyStyle.Render(emptyCell))
				}
			}
			if y < w.Height()-1 {
				grid.WriteByte('\n')
			}
		}

		fmt.Fprintf(&side, "%s\n", titleStyle.Render("lifegrid"))
		fmt.Fprintf(&side, "turn %s  organisms %s\n", humanize.Comma(int64(w.Turn())), humanize.Comma(int64(w.Count())))
		if p, ok := w.Player(); ok {
			fmt.Fprintf(&side, "you: power %d at %s\n", p.Power, p.Tile())
			if p.Ability != nil {
				fmt.Fprintf(&side, "%s\n", p.Ability.Describe())
			}
		} else {
			side.WriteString("you are dead (n for a new game)\n")
		}

		side.WriteString("\n")
		for _, c := range engine.SortedCensus(engine.Census(w)) {
			k, err := w.Catalog().Kind(c.Species)
			symbol := ""
			if err == nil {
				symbol = k.Symbol
			}
			fmt.Fprintf(&side, "%s %-12s %s\n", symbol, c.Species, humanize.Comma(int64(c.Count)))
		}

		if logs := w.Logs(); len(logs) > 0 {
			side.WriteString("\n")
			for _, l := range logs {
				side.WriteString(l + "\n")
			}
		}
		return nil
	})

	body := lipgloss.JoinHorizontal(lipgloss.Top, gridStyle.Render(grid.String()), panelStyle.Render(side.String()))
	help := helpStyle.Render("arrows steer · space/enter turn · i ability · n new · s save · l load · q quit")
	return body + "\n" + statusStyle.Render(m.status) + "\n" + help + "\n"
}

// Run starts the interactive session and blocks until the player quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
