package simulator

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/saveugene/pulsedash/internal/transport"
)

const (
	timeLayout       = "2006-01-02T15:04:05Z"
	sessionDataURL   = "http://example.org/sessionData"
	categoryVital    = "vital-signs"
	categoryDisplay  = "Vital Signs"
	observationFinal = "final"
)

type reading struct {
	Time  int `json:"time"`
	Value int `json:"value"`
}

// session accumulates one client's readings and the running aggregates sent
// alongside each of them.
type session struct {
	start    time.Time
	readings []reading
	min, max int
	sum      int
}

func newSession(start time.Time) *session {
	return &session{start: start}
}

// add records v and returns the aggregates over the whole session.
func (s *session) add(t, v int) *transport.Aggregates {
	if len(s.readings) == 0 {
		s.min, s.max = v, v
	}
	s.readings = append(s.readings, reading{Time: t, Value: v})
	s.min = min(s.min, v)
	s.max = max(s.max, v)
	s.sum += v

	lo, hi := float64(s.min), float64(s.max)
	avg := s.avg()
	trend := float64(v - s.readings[0].Value)
	return &transport.Aggregates{Min: &lo, Max: &hi, Avg: &avg, Trend: &trend}
}

// avg is the session mean rounded to two decimals.
func (s *session) avg() float64 {
	mean := float64(s.sum) / float64(len(s.readings))
	return math.Round(mean*100) / 100
}

// message wraps a reading in the wire envelope.
func message(t, v int, agg *transport.Aggregates, now time.Time) transport.Message {
	return transport.Message{
		Time: t,
		Observation: transport.Observation{
			ResourceType: "Observation",
			Status:       observationFinal,
			Category: []transport.CodeableConcept{{
				Coding: []transport.Coding{{
					System: transport.CategorySystem, Code: categoryVital, Display: categoryDisplay,
				}},
			}},
			Code:              transport.HeartRateCode(),
			ValueQuantity:     transport.BPM(float64(v)),
			EffectiveDateTime: now.UTC().Format(timeLayout),
		},
		Aggregates: agg,
	}
}

// summary is the Observation stored for /api/session once a client leaves.
// It returns nil for a session without readings.
func (s *session) summary(end time.Time) (*transport.Observation, error) {
	n := len(s.readings)
	if n == 0 {
		return nil, nil
	}
	data, err := json.Marshal(s.readings)
	if err != nil {
		return nil, fmt.Errorf("encode session readings: %w", err)
	}
	component := func(name string, v float64) transport.Component {
		return transport.Component{
			Code:          transport.CodeableConcept{Text: name},
			ValueQuantity: transport.Quantity{Value: &v},
		}
	}
	return &transport.Observation{
		ResourceType:  "Observation",
		Status:        observationFinal,
		Code:          transport.HeartRateCode(),
		ValueQuantity: transport.BPM(float64(s.readings[n-1].Value)),
		Component: []transport.Component{
			component("min", float64(s.min)),
			component("max", float64(s.max)),
			component("avg", s.avg()),
		},
		EffectivePeriod: &transport.Period{
			Start:           s.start.UTC().Format(timeLayout),
			End:             end.UTC().Format(timeLayout),
			DurationSeconds: int(end.Sub(s.start).Seconds()),
		},
		Extension: []transport.Extension{{URL: sessionDataURL, ValueString: string(data)}},
	}, nil
}
