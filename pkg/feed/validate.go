package feed

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// schema describes the fields a feed payload must provide before it is
// decoded. Paths are JSONPath expressions, item paths are relative to each
// element of the items array.
type schema struct {
	name         string
	required     []string
	items        string
	itemRequired []string
}

var (
	liveFeedSchema = schema{
		name: "live",
		required: []string{
			"$.run_name", "$.track_name", "$.lap_number", "$.laps_in_race",
			"$.laps_to_go", "$.flag_state", "$.vehicles",
		},
		items:        "$.vehicles",
		itemRequired: []string{"$.running_position", "$.vehicle_number", "$.driver.full_name"},
	}
	scheduleSchema = schema{
		name:         "schedule",
		items:        "$",
		itemRequired: []string{"$.series_id", "$.race_id"},
	}
	lapNotesSchema = schema{name: "lap-notes"}
)

var compiled = map[string]jp.Expr{}

func init() {
	for _, s := range []schema{liveFeedSchema, scheduleSchema, lapNotesSchema} {
		for _, p := range append(append([]string{s.items}, s.required...), s.itemRequired...) {
			if p != "" {
				compiled[p] = jp.MustParseString(p)
			}
		}
	}
}

func (s schema) validate(data []byte) error {
	obj, err := oj.Parse(data)
	if err != nil {
		return &MalformedFeedError{Feed: s.name, Err: err}
	}
	missing := make([]string, 0)
	for _, p := range s.required {
		if !present(obj, p) {
			missing = append(missing, p)
		}
	}
	if s.items != "" {
		if res := compiled[s.items].Get(obj); len(res) > 0 && res[0] != nil {
			arr, ok := res[0].([]any)
			if !ok {
				return &MalformedFeedError{
					Feed: s.name,
					Err:  fmt.Errorf("%s is not an array", s.items),
				}
			}
			for i, item := range arr {
				for _, p := range s.itemRequired {
					if !present(item, p) {
						missing = append(missing,
							fmt.Sprintf("%s[%d]%s", s.items, i, strings.TrimPrefix(p, "$")))
					}
				}
			}
		} else if !contains(s.required, s.items) {
			missing = append(missing, s.items)
		}
	}
	if len(missing) > 0 {
		return &MalformedFeedError{Feed: s.name, Missing: missing}
	}
	return nil
}

func present(data any, path string) bool {
	res := compiled[path].Get(data)
	return len(res) > 0 && res[0] != nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
