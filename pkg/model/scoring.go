package model

import "fmt"

type FlagState int

const (
	FlagGreen     FlagState = 1
	FlagYellow    FlagState = 2
	FlagRed       FlagState = 3
	FlagCheckered FlagState = 4
	FlagWhite     FlagState = 5
	FlagWarmup    FlagState = 8
	FlagNotLive   FlagState = 9
)

func (f FlagState) String() string {
	switch f {
	case FlagGreen:
		return "green"
	case FlagYellow:
		return "yellow"
	case FlagRed:
		return "red"
	case FlagCheckered:
		return "checkered"
	case FlagWhite:
		return "white"
	case FlagWarmup:
		return "warmup"
	case FlagNotLive:
		return "not live"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

type Driver struct {
	FullName string `json:"full_name"`
}

type VehicleRecord struct {
	RunningPosition int        `json:"running_position"`
	VehicleNumber   FlexString `json:"vehicle_number"`
	Driver          Driver     `json:"driver"`
	Status          int        `json:"status"`
	// seconds behind the leader, laps behind if it starts with "-"
	Delta FlexString `json:"delta"`
}

type ScoringSnapshot struct {
	RunName    string          `json:"run_name"`
	TrackName  string          `json:"track_name"`
	LapNumber  int             `json:"lap_number"`
	LapsInRace int             `json:"laps_in_race"`
	LapsToGo   int             `json:"laps_to_go"`
	FlagState  FlagState       `json:"flag_state"`
	Vehicles   []VehicleRecord `json:"vehicles"`
}
