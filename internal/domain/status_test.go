package domain

import (
	"errors"
	"testing"
)

func TestAssayLifecycle(t *testing.T) {
	b := testBoard(t)
	mustAdd(t, &b, ItemInput{ID: "e1", Kind: KindEfficiency, Start: Day(2026, 5, 1), End: Day(2026, 5, 3), LaneID: "1"})
	for _, to := range []Status{StatusSampleReceived, StatusInProgress, StatusIncomplete, StatusReportIssued} {
		if err := b.SetStatus("e1", to); err != nil {
			t.Fatalf("SetStatus(%s) error = %v", to, err)
		}
	}
	got, _ := b.Item("e1")
	if got.Base().Status != StatusReportIssued {
		t.Fatalf("expected report-issued, got %s", got.Base().Status)
	}
}

func TestInvalidTransitionsLeaveItemUntouched(t *testing.T) {
	b := testBoard(t)
	mustAdd(t, &b, ItemInput{ID: "e1", Kind: KindEfficiency, Start: Day(2026, 5, 1), End: Day(2026, 5, 3), LaneID: "1"})
	mustAdd(t, &b, ItemInput{ID: "p1", Kind: KindEfficiency, Start: Day(2026, 5, 1), End: Day(2026, 5, 3)})
	mustAdd(t, &b, ItemInput{ID: "c1", Kind: KindCalibration, Start: Day(2026, 5, 1), End: Day(2026, 5, 3), Scope: ScopeAll})
	before := b.Clone()

	cases := []struct {
		id string
		to Status
	}{
		{"e1", StatusCompleted},
		{"e1", StatusReportIssued},
		{"e1", StatusAwaiting},
		{"e1", StatusPending},
		{"p1", StatusAwaiting},
		{"c1", StatusCompleted},
		{"c1", StatusScheduled},
	}
	for _, tc := range cases {
		if err := b.SetStatus(tc.id, tc.to); !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("SetStatus(%s,%s) expected ErrInvalidStateTransition, got %v", tc.id, tc.to, err)
		}
	}
	if !b.Equal(before) {
		t.Fatal("expected board untouched after invalid transitions")
	}
}

func TestCoerceStatus(t *testing.T) {
	terminal := Lane{ID: "1", Kind: LaneKindTerminal, Name: "T1"}
	cases := []struct {
		kind ItemKind
		from Status
		lane Lane
		want Status
	}{
		{KindEfficiency, StatusPending, terminal, StatusAwaiting},
		{KindEfficiency, StatusInProgress, terminal, StatusInProgress},
		{KindSafety, StatusCompleted, PendingLane(), StatusPending},
		{KindCalibration, StatusScheduled, PendingLane(), StatusScheduled},
	}
	for _, tc := range cases {
		if got := CoerceStatus(tc.kind, tc.from, tc.lane); got != tc.want {
			t.Fatalf("CoerceStatus(%s,%s,%s) = %s, want %s", tc.kind, tc.from, tc.lane.ID, got, tc.want)
		}
	}
}

func TestLaneAccepts(t *testing.T) {
	safety := Lane{ID: "A", Kind: LaneKindSafety, Name: "A"}
	if !LaneAccepts(safety, KindEfficiency) || !LaneAccepts(PendingLane(), KindSafety) {
		t.Fatal("expected assays accepted on safety and pending lanes")
	}
	if LaneAccepts(VacationLane(), KindEfficiency) {
		t.Fatal("expected vacation lane to reject assays")
	}
	if LaneAccepts(safety, KindVacation) || !LaneAccepts(VacationLane(), KindVacation) {
		t.Fatal("expected vacations only on the vacation lane")
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" In-Progress ")
	if err != nil || got != StatusInProgress {
		t.Fatalf("ParseStatus() = %q, %v", got, err)
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}
