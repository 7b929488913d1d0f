package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/greenflag/pkg/model"
)

var one = decimal.NewFromInt(1)

// DriverRows returns the running order, one formatted row per vehicle.
// The input slice is not modified.
func (t *Transformer) DriverRows(vehicles []model.VehicleRecord) []string {
	ordered := slices.Clone(vehicles)
	slices.SortStableFunc(ordered, func(a, b model.VehicleRecord) int {
		return a.RunningPosition - b.RunningPosition
	})
	width := t.NameWidth()
	return lo.Map(ordered, func(v model.VehicleRecord, _ int) string {
		return t.row(v, width)
	})
}

func (t *Transformer) row(v model.VehicleRecord, nameWidth int) string {
	return fmt.Sprintf("%2d. #%-2s %-*s %-10s",
		v.RunningPosition,
		v.VehicleNumber,
		nameWidth, CleanName(v.Driver.FullName),
		t.DeltaLabel(v))
}

// DeltaLabel describes the gap of the vehicle to the leader.
// Leader, Out and Off are decided without looking at the delta.
func (t *Transformer) DeltaLabel(v model.VehicleRecord) string {
	switch {
	case v.RunningPosition == 1:
		return "Leader"
	case v.Status == t.statusOut:
		return "Out"
	case v.Status == t.statusOff:
		return "Off"
	}
	raw := strings.TrimSpace(v.Delta.String())
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "-") {
		return lapsDown(raw)
	}
	return "-" + seconds(raw)
}

func lapsDown(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		mag := strings.TrimPrefix(raw, "-")
		if mag == "1" {
			return mag + " lap"
		}
		return mag + " laps"
	}
	mag := d.Abs()
	if mag.Equal(one) {
		return mag.String() + " lap"
	}
	return mag.String() + " laps"
}

func seconds(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.String()
}

// CleanName removes the interim designation (" #") and the marker for
// drivers not eligible for series points ("(i)").
func CleanName(name string) string {
	name = strings.ReplaceAll(name, " #", "")
	name = strings.ReplaceAll(name, "(i)", "")
	return strings.TrimSpace(name)
}
