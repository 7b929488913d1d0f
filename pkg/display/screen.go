// Package display draws the dashboard on a terminal. The screen is split
// into four regions: event and standings on the left, lap/flag status and
// lap notes on the right.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/transform"
)

const (
	Title     = "Green Flag!"
	NoRaceMsg = "No race found for today"

	DefaultWidth  = 120
	DefaultHeight = 40

	// lines kept in the notes region, older ones are dropped
	maxNoteLines = 500

	escClear      = "\x1b[H\x1b[2J"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escReset      = "\x1b[0m"
)

// border overhead of a two column rounded table
const (
	tableBorderCols = 7
	tableBorderRows = 3
)

type Screen struct {
	mu        sync.Mutex
	out       io.Writer
	fd        int
	tty       bool
	raw       bool
	width     int
	height    int
	fixedSize bool
	started   bool
	status    string
	l         *log.Logger

	event     *Region
	laps      *Region
	standings *Region
	notes     *Region
}

type Option func(*Screen)

// WithSize sets a fixed size instead of querying the terminal
func WithSize(width, height int) Option {
	return func(s *Screen) {
		s.width = width
		s.height = height
		s.fixedSize = true
	}
}

// WithRawMode tells the screen the terminal is in raw mode, so line
// breaks need an explicit carriage return.
func WithRawMode(raw bool) Option {
	return func(s *Screen) {
		s.raw = raw
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Screen) {
		s.l = l
	}
}

// NewScreen creates a screen writing to out. Terminal features (colors,
// clearing, title) are used only if out is a terminal.
func NewScreen(out io.Writer, opts ...Option) *Screen {
	ret := &Screen{
		out:       out,
		fd:        -1,
		width:     DefaultWidth,
		height:    DefaultHeight,
		l:         log.Default().Named("display"),
		event:     NewRegion("event"),
		laps:      NewRegion("laps"),
		standings: NewRegion("standings"),
		notes:     NewRegion("notes"),
	}
	if f, ok := out.(*os.File); ok {
		ret.fd = int(f.Fd())
		ret.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.updateSize()
	return ret
}

func (s *Screen) IsTerminal() bool {
	return s.tty
}

func (s *Screen) updateSize() {
	if s.fixedSize || !s.tty {
		return
	}
	if w, h, err := term.GetSize(s.fd); err == nil && w > 0 && h > 0 {
		s.width, s.height = w, h
	}
}

// columnWidths returns the inner widths of the left and right column
func (s *Screen) columnWidths() (left, right int) {
	inner := max(s.width-tableBorderCols, 2)
	left = inner * 75 / 100
	return left, inner - left
}

// rowHeights returns the inner heights of the top and bottom row
func (s *Screen) rowHeights() (top, bottom int) {
	inner := max(s.height-tableBorderRows-1, 3)
	top = max(inner*15/100, 2)
	return top, max(inner-top, 1)
}

// NameWidth is the driver name width fitting into the current standings
// column
func (s *Screen) NameWidth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateSize()
	left, _ := s.columnWidths()
	if left >= transform.NameWidthWide+20 {
		return transform.NameWidthWide
	}
	return transform.NameWidthNarrow
}

// Render puts the model into the regions and flushes
func (s *Screen) Render(m *model.DisplayModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event.SetText(m.EventHeader)
	s.laps.SetText(m.LapSummary)
	s.laps.SetStyle(m.FlagStyle)
	s.standings.SetText("")
	for i, row := range m.DriverRows {
		s.standings.SetLine(i, row)
	}
	for _, n := range m.NoteLines {
		s.notes.Append(s.noteLine(n))
	}
	s.notes.Truncate(maxNoteLines)
	s.status = ""
	return s.flush()
}

func (s *Screen) ShowNoRace(today time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.Debug("showing no race", log.Time("today", today))
	s.event.SetText(NoRaceMsg)
	return s.flush()
}

// ShowStatus shows msg below the layout until the next Render
func (s *Screen) ShowStatus(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
	return s.flush()
}

// Flush redraws the screen
func (s *Screen) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// Close restores the cursor
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tty || !s.started {
		return nil
	}
	_, err := io.WriteString(s.out, escReset+escShowCursor+s.newline())
	return err
}

func (s *Screen) noteLine(n model.NoteLine) string {
	prefix := fmt.Sprintf("Lap %s:", n.Lap)
	if s.tty {
		prefix = text.FgYellow.Sprint(prefix)
	}
	return prefix + " " + n.Text
}

func (s *Screen) newline() string {
	if s.raw {
		return "\r\n"
	}
	return "\n"
}

func (s *Screen) flush() error {
	s.updateSize()
	var sb strings.Builder
	if s.tty {
		if !s.started {
			fmt.Fprintf(&sb, "\x1b]0;%s\x07%s", Title, escHideCursor)
		}
		sb.WriteString(escClear)
	}
	s.started = true

	frame := s.compose()
	if s.status != "" {
		frame += "\n" + s.status
	}
	sb.WriteString(strings.ReplaceAll(frame, "\n", s.newline()))
	sb.WriteString(s.newline())
	if _, err := io.WriteString(s.out, sb.String()); err != nil {
		return err
	}
	if f, ok := s.out.(interface{ Sync() error }); ok && s.tty {
		//nolint:errcheck // terminals may not support sync
		f.Sync()
	}
	return nil
}

// compose renders the regions as a two by two table
func (s *Screen) compose() string {
	left, right := s.columnWidths()
	top, bottom := s.rowHeights()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: left, WidthMax: left, WidthMaxEnforcer: text.Trim},
		{Number: 2, WidthMin: right, WidthMax: right, WidthMaxEnforcer: text.Trim},
	})
	tw.AppendRow(table.Row{
		block(s.event.Lines(), left, top, head),
		s.colorize(s.laps, block(s.laps.Lines(), right, top, head)),
	})
	tw.AppendRow(table.Row{
		block(s.standings.Lines(), left, bottom, head),
		block(s.notes.Lines(), right, bottom, tail),
	})
	return tw.Render()
}

func (s *Screen) colorize(r *Region, content string) string {
	style, ok := r.Style()
	if !s.tty || !ok {
		return content
	}
	colors := text.Colors{bgColor(style.Bg), fgColor(style.Fg)}
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = colors.Sprint(lines[i])
	}
	return strings.Join(lines, "\n")
}

type anchor int

const (
	head anchor = iota
	tail
)

// block fits lines into width x height. With tail the last lines are kept.
func block(lines []string, width, height int, a anchor) string {
	if len(lines) > height {
		if a == tail {
			lines = lines[len(lines)-height:]
		} else {
			lines = lines[:height]
		}
	}
	ret := make([]string, height)
	for i := range ret {
		line := ""
		if i < len(lines) {
			line = text.Trim(lines[i], width)
		}
		ret[i] = text.Pad(line, width, ' ')
	}
	return strings.Join(ret, "\n")
}

func bgColor(c model.Color) text.Color {
	switch c {
	case model.ColorGreen:
		return text.BgGreen
	case model.ColorYellow:
		return text.BgYellow
	case model.ColorRed:
		return text.BgRed
	case model.ColorWhite:
		return text.BgWhite
	default:
		return text.BgBlack
	}
}

func fgColor(c model.Color) text.Color {
	switch c {
	case model.ColorWhite:
		return text.FgWhite
	case model.ColorGreen:
		return text.FgGreen
	case model.ColorYellow:
		return text.FgYellow
	case model.ColorRed:
		return text.FgRed
	default:
		return text.FgBlack
	}
}
