// Package feeddata provides sample feed payloads and a scriptable fetcher
// for tests.
package feeddata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrNotConfigured = errors.New("no response configured")

// Today is the reference date used by the sample schedules
func Today() time.Time {
	return time.Date(2024, 5, 26, 12, 0, 0, 0, time.Local)
}

const TrucksSchedule = `[
	{"series_id":3,"race_id":5401,"race_name":"Truck Race A","track_name":"Track A",
	 "tunein_date":"2024-05-24T20:30:00","margin_of_victory":"1.2"},
	{"series_id":3,"race_id":5402,"race_name":"Truck Race B","track_name":"Track B",
	 "tunein_date":"2024-05-26T13:00:00","margin_of_victory":""}
]`

const XfinitySchedule = `[
	{"series_id":2,"race_id":5301,"race_name":"Xfinity Race","track_name":"Track C",
	 "tunein_date":"2024-05-25T15:00:00","margin_of_victory":"0.5"}
]`

const CupSchedule = `[
	{"series_id":1,"race_id":5201,"race_name":"Cup Race","track_name":"Track C",
	 "tunein_date":"2024-05-26T18:00:00","margin_of_victory":""}
]`

// LiveFeed is a live feed with two cars delivered out of order
const LiveFeed = `{
	"run_name":"Truck Race B","track_name":"Track B",
	"lap_number":10,"laps_in_race":50,"laps_to_go":40,"flag_state":1,
	"vehicles":[
		{"running_position":2,"vehicle_number":"98","driver":{"full_name":"Ty Majeski"},"status":1,"delta":0.512},
		{"running_position":1,"vehicle_number":"11","driver":{"full_name":"Corey Heim"},"status":1,"delta":0}
	]
}`

const LapNotes = `{"laps":{
	"2":[{"Note":"Caution for debris"}],
	"10":[{"Note":"Heim takes the lead"},{"Note":"Green flag"}]
}}`

// FakeFetcher serves configured payloads by url suffix and records requests
type FakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]response
	requests  []string
}

type response struct {
	data string
	err  error
}

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{responses: map[string][]response{}}
}

// On queues a payload for urls ending with suffix. The last queued
// response is repeated once the queue is drained.
func (f *FakeFetcher) On(suffix, data string) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[suffix] = append(f.responses[suffix], response{data: data})
	return f
}

func (f *FakeFetcher) OnError(suffix string, err error) *FakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[suffix] = append(f.responses[suffix], response{err: err})
	return f
}

func (f *FakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	for suffix, queue := range f.responses {
		if !strings.HasSuffix(url, suffix) {
			continue
		}
		r := queue[0]
		if len(queue) > 1 {
			f.responses[suffix] = queue[1:]
		}
		if r.err != nil {
			return nil, r.err
		}
		return []byte(r.data), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConfigured, url)
}

func (f *FakeFetcher) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Count returns the number of requests whose url contains part
func (f *FakeFetcher) Count(part string) int {
	ret := 0
	for _, r := range f.Requests() {
		if strings.Contains(r, part) {
			ret++
		}
	}
	return ret
}

// Schedules registers the three sample schedules
func (f *FakeFetcher) Schedules() *FakeFetcher {
	return f.On("/3/race_list_basic.json", TrucksSchedule).
		On("/2/race_list_basic.json", XfinitySchedule).
		On("/1/race_list_basic.json", CupSchedule)
}
