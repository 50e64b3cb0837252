package domain

import (
	"slices"
	"strings"
	"time"
)

// ItemKind identifies one scheduled item variant.
type ItemKind string

// ItemKind values.
const (
	KindEfficiency  ItemKind = "efficiency"
	KindSafety      ItemKind = "safety"
	KindCalibration ItemKind = "calibration"
	KindVacation    ItemKind = "vacation"
)

var validItemKinds = []ItemKind{KindEfficiency, KindSafety, KindCalibration, KindVacation}

// ParseItemKind canonicalizes an item kind string.
func ParseItemKind(raw string) (ItemKind, error) {
	kind := ItemKind(strings.TrimSpace(strings.ToLower(raw)))
	if !slices.Contains(validItemKinds, kind) {
		return "", ErrInvalidKind
	}
	return kind, nil
}

// Category returns the lane category an item kind belongs to.
// Calibrations span terminals and count as efficiency-side items.
func (k ItemKind) Category() Category {
	switch k {
	case KindSafety:
		return CategorySafety
	case KindVacation:
		return CategoryVacation
	default:
		return CategoryEfficiency
	}
}

// Schedule holds the fields every item variant shares.
type Schedule struct {
	ID     string    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	LaneID string    `json:"lane_id,omitempty"`
	Status Status    `json:"status"`
}

// Duration returns the inclusive span length in whole days minus one.
func (s Schedule) Duration() int {
	return DaysBetween(s.Start, s.End)
}

// ShiftTo moves the schedule to start at the given date, preserving its duration.
func (s Schedule) ShiftTo(start time.Time) Schedule {
	days := s.Duration()
	s.Start = Date(start)
	s.End = AddDays(s.Start, days)
	return s
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func (s Schedule) Overlaps(o Schedule) bool {
	return !s.End.Before(o.Start) && !o.End.Before(s.Start)
}

func (s Schedule) equal(o Schedule) bool {
	return s.ID == o.ID &&
		s.Start.Equal(o.Start) &&
		s.End.Equal(o.End) &&
		s.LaneID == o.LaneID &&
		s.Status == o.Status
}

// validateRange normalizes dates and enforces End >= Start.
func validateRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	start, end = Date(start), Date(end)
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

// Item is the closed set of schedulable variants.
type Item interface {
	Base() Schedule
	Kind() ItemKind
	withSchedule(Schedule) Item
}

// WithSchedule returns a copy of item carrying s. The item id never changes.
func WithSchedule(item Item, s Schedule) Item {
	s.ID = item.Base().ID
	return item.withSchedule(s)
}

// AssayDetails carries the assay fields the layout and drag logic never read.
type AssayDetails struct {
	Protocol     string `json:"protocol,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Load         string `json:"load,omitempty"`
	Cycles       int    `json:"cycles,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func (d AssayDetails) normalized() AssayDetails {
	d.Protocol = strings.TrimSpace(d.Protocol)
	d.Manufacturer = strings.TrimSpace(d.Manufacturer)
	d.Model = strings.TrimSpace(d.Model)
	d.Load = strings.TrimSpace(d.Load)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Cycles < 0 {
		d.Cycles = 0
	}
	return d
}

// EfficiencyAssay is an efficiency test booked on a numbered terminal or left pending.
type EfficiencyAssay struct {
	Schedule
	AssayDetails
}

// Base returns the shared schedule fields.
func (a EfficiencyAssay) Base() Schedule { return a.Schedule }

// Kind returns KindEfficiency.
func (a EfficiencyAssay) Kind() ItemKind { return KindEfficiency }

func (a EfficiencyAssay) withSchedule(s Schedule) Item {
	a.Schedule = s
	return a
}

// SafetyAssay is a safety test owned by a safety responsible.
type SafetyAssay struct {
	Schedule
	AssayDetails
}

// Base returns the shared schedule fields.
func (a SafetyAssay) Base() Schedule { return a.Schedule }

// Kind returns KindSafety.
func (a SafetyAssay) Kind() ItemKind { return KindSafety }

func (a SafetyAssay) withSchedule(s Schedule) Item {
	a.Schedule = s
	return a
}

// CalibrationScope names the contiguous terminal range a calibration blocks.
type CalibrationScope string

// CalibrationScope values.
const (
	ScopeEnergy1to4 CalibrationScope = "energy-1-4"
	ScopeEnergy5to8 CalibrationScope = "energy-5-8"
	ScopeAll        CalibrationScope = "all"
)

// ParseCalibrationScope canonicalizes a scope string.
func ParseCalibrationScope(raw string) (CalibrationScope, error) {
	scope := CalibrationScope(strings.TrimSpace(strings.ToLower(raw)))
	switch scope {
	case ScopeEnergy1to4, ScopeEnergy5to8, ScopeAll:
		return scope, nil
	default:
		return "", ErrInvalidScope
	}
}

// Covers reports whether the scope includes the terminal with the given number.
func (c CalibrationScope) Covers(terminal int) bool {
	switch c {
	case ScopeEnergy1to4:
		return terminal >= 1 && terminal <= 4
	case ScopeEnergy5to8:
		return terminal >= 5 && terminal <= 8
	case ScopeAll:
		return true
	default:
		return false
	}
}

// CalibrationEvent blocks a range of terminals for calibration work.
type CalibrationEvent struct {
	Schedule
	Scope       CalibrationScope `json:"scope"`
	Description string           `json:"description,omitempty"`
}

// Base returns the shared schedule fields.
func (c CalibrationEvent) Base() Schedule { return c.Schedule }

// Kind returns KindCalibration.
func (c CalibrationEvent) Kind() ItemKind { return KindCalibration }

func (c CalibrationEvent) withSchedule(s Schedule) Item {
	c.Schedule = s
	return c
}

// VacationEvent marks a person's absence on the vacation lane.
type VacationEvent struct {
	Schedule
	Person string `json:"person"`
}

// Base returns the shared schedule fields.
func (v VacationEvent) Base() Schedule { return v.Schedule }

// Kind returns KindVacation.
func (v VacationEvent) Kind() ItemKind { return KindVacation }

func (v VacationEvent) withSchedule(s Schedule) Item {
	v.Schedule = s
	return v
}

// ItemInput holds write-time values for creating or editing an item.
// Fields that do not apply to Kind are ignored.
type ItemInput struct {
	ID          string
	Kind        ItemKind
	Start       time.Time
	End         time.Time
	LaneID      string
	Assay       AssayDetails
	Scope       CalibrationScope
	Description string
	Person      string
}

// NewItem validates in and builds the matching variant with its initial status.
// Lane existence is checked by the board; here only the kind-level rules apply.
func NewItem(in ItemInput) (Item, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.LaneID = strings.TrimSpace(in.LaneID)
	if in.ID == "" {
		return nil, ErrInvalidID
	}
	start, end, err := validateRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	base := Schedule{ID: in.ID, Start: start, End: end}

	switch in.Kind {
	case KindEfficiency:
		if in.LaneID == PendingLaneID {
			in.LaneID = ""
		}
		base.LaneID = in.LaneID
		base.Status = InitialStatus(KindEfficiency, in.LaneID != "")
		return EfficiencyAssay{Schedule: base, AssayDetails: in.Assay.normalized()}, nil
	case KindSafety:
		if in.LaneID == "" {
			return nil, ErrIllegalLane
		}
		base.LaneID = in.LaneID
		base.Status = InitialStatus(KindSafety, true)
		return SafetyAssay{Schedule: base, AssayDetails: in.Assay.normalized()}, nil
	case KindCalibration:
		scope, err := ParseCalibrationScope(string(in.Scope))
		if err != nil {
			return nil, err
		}
		base.Status = StatusScheduled
		return CalibrationEvent{Schedule: base, Scope: scope, Description: strings.TrimSpace(in.Description)}, nil
	case KindVacation:
		person := strings.TrimSpace(in.Person)
		if person == "" {
			return nil, ErrInvalidName
		}
		base.LaneID = VacationLaneID
		base.Status = StatusScheduled
		return VacationEvent{Schedule: base, Person: person}, nil
	default:
		return nil, ErrInvalidKind
	}
}

// EditItem applies the editable fields of in to item, keeping id, kind, lane and status.
func EditItem(item Item, in ItemInput) (Item, error) {
	start, end, err := validateRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	switch v := item.(type) {
	case EfficiencyAssay:
		v.AssayDetails = in.Assay.normalized()
		item = v
	case SafetyAssay:
		v.AssayDetails = in.Assay.normalized()
		item = v
	case CalibrationEvent:
		scope, err := ParseCalibrationScope(string(in.Scope))
		if err != nil {
			return nil, err
		}
		v.Scope = scope
		v.Description = strings.TrimSpace(in.Description)
		item = v
	case VacationEvent:
		person := strings.TrimSpace(in.Person)
		if person == "" {
			return nil, ErrInvalidName
		}
		v.Person = person
		item = v
	default:
		return nil, ErrInvalidKind
	}
	s := item.Base()
	s.Start, s.End = start, end
	return WithSchedule(item, s), nil
}

// ConvertAssay re-homes an assay into the other assay collection, carrying
// its schedule and details unchanged.
func ConvertAssay(item Item, to ItemKind) (Item, error) {
	var (
		s       Schedule
		details AssayDetails
	)
	switch v := item.(type) {
	case EfficiencyAssay:
		s, details = v.Schedule, v.AssayDetails
	case SafetyAssay:
		s, details = v.Schedule, v.AssayDetails
	default:
		return nil, ErrIllegalLane
	}
	switch to {
	case KindEfficiency:
		return EfficiencyAssay{Schedule: s, AssayDetails: details}, nil
	case KindSafety:
		return SafetyAssay{Schedule: s, AssayDetails: details}, nil
	default:
		return nil, ErrIllegalLane
	}
}

// Draggable reports whether pointer drag may pick the item up.
func Draggable(item Item) bool {
	return item != nil && item.Kind() != KindVacation
}

// SwapCompatible reports whether two items may exchange their date ranges.
// Assays swap with assays and calibrations with calibrations; vacations never swap.
func SwapCompatible(a, b Item) bool {
	if !Draggable(a) || !Draggable(b) {
		return false
	}
	isAssay := func(k ItemKind) bool { return k == KindEfficiency || k == KindSafety }
	if isAssay(a.Kind()) && isAssay(b.Kind()) {
		return true
	}
	return a.Kind() == KindCalibration && b.Kind() == KindCalibration
}

// Label returns a short display name for an item.
func Label(item Item) string {
	switch v := item.(type) {
	case EfficiencyAssay:
		return firstNonEmpty(v.Protocol, v.Model, v.Manufacturer, "efficiency")
	case SafetyAssay:
		return firstNonEmpty(v.Protocol, v.Model, v.Manufacturer, "safety")
	case CalibrationEvent:
		return firstNonEmpty(v.Description, "calibration "+string(v.Scope))
	case VacationEvent:
		return v.Person
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
