package model

import "fmt"

type Color string

const (
	ColorBlack  Color = "black"
	ColorWhite  Color = "white"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

type StylePair struct {
	Bg Color `json:"bg" yaml:"bg"`
	Fg Color `json:"fg" yaml:"fg"`
}

type NoteLine struct {
	Lap  string `json:"lap" yaml:"lap"`
	Text string `json:"text" yaml:"text"`
}

func (n NoteLine) String() string {
	return fmt.Sprintf("Lap %s: %s", n.Lap, n.Text)
}

// DisplayModel is everything needed to draw one frame.
// NoteLines only holds the notes not yet handed to the display.
type DisplayModel struct {
	EventHeader string     `json:"eventHeader" yaml:"eventHeader"`
	LapSummary  string     `json:"lapSummary" yaml:"lapSummary"`
	FlagState   FlagState  `json:"flagState" yaml:"flagState"`
	FlagStyle   StylePair  `json:"flagStyle" yaml:"flagStyle"`
	DriverRows  []string   `json:"driverRows" yaml:"driverRows"`
	NoteLines   []NoteLine `json:"noteLines" yaml:"noteLines"`
}
