package models

import (
	"fmt"

	"github.com/google/uuid"
)

// SegmentType is one of the 19 closed cardio segment categories.
type SegmentType string

const (
	SegWarmup       SegmentType = "warmup"
	SegCooldown     SegmentType = "cooldown"
	SegEasy         SegmentType = "easy"
	SegTempo        SegmentType = "tempo"
	SegInterval     SegmentType = "interval"
	SegRecovery     SegmentType = "recovery"
	SegZone1        SegmentType = "zone1"
	SegZone2        SegmentType = "zone2"
	SegZone3        SegmentType = "zone3"
	SegZone4        SegmentType = "zone4"
	SegZone5        SegmentType = "zone5"
	SegIntervalWork SegmentType = "interval_work"
	SegIntervalRest SegmentType = "interval_rest"
	SegHillUp       SegmentType = "hill_up"
	SegHillDown     SegmentType = "hill_down"
	SegStride       SegmentType = "stride"
	SegFartlek      SegmentType = "fartlek"
	SegMarathonPace SegmentType = "marathon_pace"
	SegRacePace     SegmentType = "race_pace"
)

// SegmentTypes lists all valid segment types in picker order.
var SegmentTypes = []SegmentType{
	SegWarmup, SegCooldown, SegEasy, SegTempo, SegInterval, SegRecovery,
	SegZone1, SegZone2, SegZone3, SegZone4, SegZone5,
	SegIntervalWork, SegIntervalRest, SegHillUp, SegHillDown,
	SegStride, SegFartlek, SegMarathonPace, SegRacePace,
}

// Valid reports whether t is one of the 19 known segment types.
func (t SegmentType) Valid() bool {
	for _, s := range SegmentTypes {
		if s == t {
			return true
		}
	}
	return false
}

// segmentLabels maps segment types to display labels.
var segmentLabels = map[SegmentType]string{
	SegWarmup:       "Warm Up",
	SegCooldown:     "Cool Down",
	SegEasy:         "Easy",
	SegTempo:        "Tempo",
	SegInterval:     "Interval",
	SegRecovery:     "Recovery",
	SegZone1:        "Zone 1",
	SegZone2:        "Zone 2",
	SegZone3:        "Zone 3",
	SegZone4:        "Zone 4",
	SegZone5:        "Zone 5",
	SegIntervalWork: "Work",
	SegIntervalRest: "Rest",
	SegHillUp:       "Hill Up",
	SegHillDown:     "Hill Down",
	SegStride:       "Stride",
	SegFartlek:      "Fartlek",
	SegMarathonPace: "Marathon Pace",
	SegRacePace:     "Race Pace",
}

// Label returns the display label for a segment type.
func (t SegmentType) Label() string {
	if l, ok := segmentLabels[t]; ok {
		return l
	}
	return string(t)
}

// defaultZones maps segment types to their default target zone. Zero
// means no default (flexible pacing).
var defaultZones = map[SegmentType]int{
	SegEasy:         2,
	SegZone1:        1,
	SegZone2:        2,
	SegZone3:        3,
	SegZone4:        4,
	SegZone5:        5,
	SegRecovery:     1,
	SegTempo:        3,
	SegMarathonPace: 3,
	SegRacePace:     4,
	SegInterval:     5,
	SegIntervalWork: 5,
	SegIntervalRest: 1,
	SegHillUp:       4,
	SegHillDown:     2,
	SegStride:       5,
	SegFartlek:      3,
}

// DefaultZone returns the default target zone for a segment type, or 0
// when the type has no fixed zone (warmup, cooldown).
func (t SegmentType) DefaultZone() int {
	return defaultZones[t]
}

// IntervalLike reports whether the type supports repeat/rest semantics.
func (t SegmentType) IntervalLike() bool {
	switch t {
	case SegInterval, SegIntervalWork, SegStride, SegHillUp:
		return true
	}
	return false
}

// CardioSegment is one piece of a cardio workout. Exactly one of
// DurationSeconds, DistanceMeters, or IsOpenEnded is meaningful at a
// time; use the Set* methods to keep them exclusive.
type CardioSegment struct {
	ID              string      `json:"id"`
	OrderIndex      int         `json:"order_index"`
	SegmentType     SegmentType `json:"segment_type"`
	DurationSeconds int         `json:"duration_seconds,omitempty"`
	DistanceMeters  int         `json:"distance_meters,omitempty"`
	IsOpenEnded     bool        `json:"is_open_ended"`
	TargetZone      int         `json:"target_zone,omitempty"`
	RepeatCount     int         `json:"repeat_count"`
	RestSeconds     int         `json:"rest_seconds,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// NewCardioSegment builds a segment of the given type with its default
// zone and a fresh ID. OrderIndex is assigned when the segment is added
// to a day.
func NewCardioSegment(t SegmentType) CardioSegment {
	return CardioSegment{
		ID:          "seg-" + uuid.NewString(),
		SegmentType: t,
		TargetZone:  t.DefaultZone(),
		RepeatCount: 1,
	}
}

// SetDuration makes the segment time-based, clearing distance and the
// open-ended flag.
func (s *CardioSegment) SetDuration(seconds int) {
	s.DurationSeconds = seconds
	s.DistanceMeters = 0
	s.IsOpenEnded = false
}

// SetDistance makes the segment distance-based, clearing duration and
// the open-ended flag.
func (s *CardioSegment) SetDistance(meters int) {
	s.DistanceMeters = meters
	s.DurationSeconds = 0
	s.IsOpenEnded = false
}

// SetOpenEnded marks the segment as open-ended, clearing duration and
// distance.
func (s *CardioSegment) SetOpenEnded() {
	s.IsOpenEnded = true
	s.DurationSeconds = 0
	s.DistanceMeters = 0
}

// AddCardioSegment appends a segment to the day, assigning the next
// order index.
func (d *Day) AddCardioSegment(seg CardioSegment) {
	seg.OrderIndex = len(d.CardioSegments)
	if seg.RepeatCount < 1 {
		seg.RepeatCount = 1
	}
	d.CardioSegments = append(d.CardioSegments, seg)
}

// RemoveCardioSegment deletes the segment with the given ID and
// renumbers the remainder so order indexes stay dense and zero-based.
func (d *Day) RemoveCardioSegment(id string) bool {
	idx := -1
	for i, s := range d.CardioSegments {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	d.CardioSegments = append(d.CardioSegments[:idx], d.CardioSegments[idx+1:]...)
	for i := range d.CardioSegments {
		d.CardioSegments[i].OrderIndex = i
	}
	return true
}

// FormatSegmentDuration renders duration_seconds for display: "20min",
// "4:30".
func FormatSegmentDuration(seconds int) string {
	mins := seconds / 60
	secs := seconds % 60
	if secs > 0 {
		return fmt.Sprintf("%d:%02d", mins, secs)
	}
	return fmt.Sprintf("%dmin", mins)
}

// trackDistances are meters shown as-is rather than converted to km/mi.
var trackDistances = map[int]bool{
	100: true, 150: true, 200: true, 300: true, 400: true, 600: true,
	800: true, 1000: true, 1200: true, 1500: true, 1600: true,
}

// FormatSegmentDistance renders distance_meters with smart unit
// selection: track distances and anything under a mile stay in meters,
// round kilometers use km, everything else miles.
func FormatSegmentDistance(meters int) string {
	if trackDistances[meters] || meters < 1600 {
		return fmt.Sprintf("%dm", meters)
	}
	if meters >= 1000 && meters%1000 == 0 {
		return fmt.Sprintf("%dkm", meters/1000)
	}
	return fmt.Sprintf("%.1fmi", float64(meters)/1609.34)
}

// FormatSegmentRest renders rest_seconds for display: "30s", "2m", "1m 30s".
func FormatSegmentRest(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	mins := seconds / 60
	secs := seconds % 60
	if secs > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%dm", mins)
}
