package model

type LapNote struct {
	Note string `json:"Note"`
}

// LapNotesSnapshot maps the lap number (as string) to the notes of that lap
type LapNotesSnapshot struct {
	Laps map[string][]LapNote `json:"laps"`
}

func EmptyLapNotes() *LapNotesSnapshot {
	return &LapNotesSnapshot{Laps: map[string][]LapNote{}}
}
