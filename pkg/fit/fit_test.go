package fit

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFactor(t *testing.T) {
	tests := []struct {
		name            string
		target, natural float64
		want            float64
	}{
		{"shrinks", 5, 10, 0.5},
		{"never enlarges", 10, 5, 1},
		{"exact fit", 5, 5, 1},
		{"zero natural", 5, 0, 1},
		{"zero target", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Factor(tt.target, tt.natural); !approx(got, tt.want) {
				t.Errorf("Factor(%v, %v) = %v, want %v", tt.target, tt.natural, got, tt.want)
			}
		})
	}
}

func TestUniform_SharedSlot(t *testing.T) {
	// Two groups in one slot of width 5 with natural widths 10 and 4 both
	// receive the factor derived from the wider one.
	got := Uniform(5, []float64{10, 4})
	if !approx(got, 0.5) {
		t.Errorf("Uniform() = %v, want 0.5", got)
	}
	if !approx(Uniform(5, []float64{1, 2}), 1) {
		t.Errorf("Uniform() of small groups = %v, want 1", Uniform(5, []float64{1, 2}))
	}
	if !approx(Uniform(5, nil), 1) {
		t.Errorf("Uniform(nil) = %v, want 1", Uniform(5, nil))
	}
}

func TestHorizontal(t *testing.T) {
	// 12 units across 3 ranks gives slots of 4.
	if got := Horizontal(12, 2, []float64{8, 2, 3}); !approx(got, 0.5) {
		t.Errorf("Horizontal() = %v, want 0.5", got)
	}
	if got := SlotWidth(12, 0); !approx(got, 12) {
		t.Errorf("SlotWidth(12, 0) = %v, want 12", got)
	}
}

func TestBandAndSpacing(t *testing.T) {
	if got := Spacing(9, 4); !approx(got, 3) {
		t.Errorf("Spacing(9, 4) = %v, want 3", got)
	}
	if got := Spacing(9, 1); !approx(got, 9) {
		t.Errorf("Spacing(9, 1) = %v, want 9", got)
	}
	if got := Band(3, []float64{6, 1}); !approx(got, 0.5) {
		t.Errorf("Band() = %v, want 0.5", got)
	}
}

func TestHeight(t *testing.T) {
	tests := []struct {
		name              string
		members           int
		height, maxHeight float64
		want              float64
	}{
		{"single member never scaled", 1, 20, 10, 1},
		{"multi member too tall", 2, 20, 10, 0.5},
		{"multi member fits", 3, 8, 10, 1},
		{"empty group", 0, 20, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Height(tt.members, tt.height, tt.maxHeight); !approx(got, tt.want) {
				t.Errorf("Height() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumn(t *testing.T) {
	got := Column([]Size{{2, 1}, {3, 2}, {1, 1}}, 0.5)
	if !approx(got.Width, 3) || !approx(got.Height, 5) {
		t.Errorf("Column() = %+v, want {3 5}", got)
	}
	if got := Column(nil, 1); got != (Size{}) {
		t.Errorf("Column(nil) = %+v, want zero", got)
	}
}

func TestPlanRanks(t *testing.T) {
	c := Canvas{TotalWidth: 10, MaxHeight: 4, Gap: 1}
	columns := [][]Size{
		{{Width: 10, Height: 10}},                      // rank 0: one huge unit
		{{Width: 4, Height: 2}, {Width: 4, Height: 2}}, // rank 1: two units
	}

	p := PlanRanks(c, columns)

	// Slot width is 10/2 = 5; the widest unit is 10, so everything halves.
	if !approx(p.Horizontal, 0.5) {
		t.Errorf("Horizontal = %v, want 0.5", p.Horizontal)
	}
	if !approx(p.Spacing, 10) {
		t.Errorf("Spacing = %v, want 10", p.Spacing)
	}

	single := p.Slots[0]
	if !approx(single.Height, 1) || !approx(single.Scale, 0.5) {
		t.Errorf("single-member slot = %+v, want height 1, scale 0.5", single)
	}

	// Narrowed column: 1 + 1 + gap 1 = 3 <= 4, so no height scaling.
	pair := p.Slots[1]
	if !approx(pair.Height, 1) || !approx(pair.Scale, 0.5) {
		t.Errorf("pair slot = %+v, want height 1, scale 0.5", pair)
	}
	if !approx(p.Slots[0].X, -5) || !approx(p.Slots[1].X, 5) {
		t.Errorf("X = %v, %v, want -5, 5", p.Slots[0].X, p.Slots[1].X)
	}

	for _, s := range p.Scales() {
		if s > 1 {
			t.Errorf("scale %v exceeds 1", s)
		}
	}
}

func TestPlanRanks_HeightConstraint(t *testing.T) {
	c := Canvas{TotalWidth: 100, MaxHeight: 6, Gap: 0}
	columns := [][]Size{
		{{Width: 1, Height: 8}},
		{{Width: 1, Height: 4}, {Width: 1, Height: 8}},
	}

	p := PlanRanks(c, columns)

	if !approx(p.Horizontal, 1) {
		t.Fatalf("Horizontal = %v, want 1", p.Horizontal)
	}
	if !approx(p.Slots[0].Scale, 1) {
		t.Errorf("single tall member scale = %v, want 1", p.Slots[0].Scale)
	}
	if !approx(p.Slots[1].Scale, 0.5) {
		t.Errorf("tall pair scale = %v, want 0.5", p.Slots[1].Scale)
	}
	if !approx(p.Slots[1].Fitted.Height, 6) {
		t.Errorf("tall pair fitted height = %v, want 6", p.Slots[1].Fitted.Height)
	}
}

func TestPlanBands(t *testing.T) {
	c := Canvas{TotalWidth: 9, Gap: 0}
	layers := [][]Size{
		{{Width: 6, Height: 1}},
		{{Width: 2, Height: 1}, {Width: 1, Height: 1}},
		{{Width: 1, Height: 1}},
		{{Width: 1, Height: 1}},
	}

	p := PlanBands(c, layers)

	if !approx(p.Spacing, 3) {
		t.Errorf("Spacing = %v, want 3", p.Spacing)
	}
	for i, s := range p.Slots {
		if !approx(s.Scale, 0.5) {
			t.Errorf("slot %d scale = %v, want 0.5 (uniform)", i, s.Scale)
		}
	}
	if !approx(p.Slots[3].X, 4.5) {
		t.Errorf("last X = %v, want 4.5", p.Slots[3].X)
	}
}
