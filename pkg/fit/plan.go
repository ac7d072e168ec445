package fit

// Canvas bounds the area content is fitted into.
type Canvas struct {
	TotalWidth float64 // horizontal extent shared by all slots
	MaxHeight  float64 // vertical bound for multi-member groups
	Gap        float64 // vertical gap between members of one column
}

// Slot is the fitted form of one column.
type Slot struct {
	Index   int     `json:"index"`
	Members int     `json:"members"`
	Natural Size    `json:"natural"` // column size before any scaling
	Height  float64 `json:"height_scale"`
	Scale   float64 `json:"scale"`  // horizontal factor times height factor
	Fitted  Size    `json:"fitted"` // column size after scaling, gaps included
	X       float64 `json:"x"`      // slot center, 0 at the canvas center
}

// Plan records every factor computed for a set of columns.
type Plan struct {
	Horizontal float64 `json:"horizontal_scale"`
	SlotWidth  float64 `json:"slot_width"`
	Spacing    float64 `json:"spacing"`
	Slots      []Slot  `json:"slots"`
}

// PlanRanks fits one column per rank. Every unit is first scaled by the
// horizontal factor of [Horizontal] (one factor for all units). Each column
// is then scaled by [Height] using its already narrowed height. Column i is
// centered at -TotalWidth/2 + i*TotalWidth/maxRank.
func PlanRanks(c Canvas, columns [][]Size) Plan {
	maxRank := max(len(columns)-1, 0)

	var widths []float64
	for _, col := range columns {
		for _, s := range col {
			widths = append(widths, s.Width)
		}
	}
	h := Horizontal(c.TotalWidth, maxRank, widths)

	spacing := 0.0
	if maxRank > 0 {
		spacing = c.TotalWidth / float64(maxRank)
	}

	p := Plan{
		Horizontal: h,
		SlotWidth:  SlotWidth(c.TotalWidth, maxRank),
		Spacing:    spacing,
		Slots:      make([]Slot, len(columns)),
	}
	for i, col := range columns {
		natural := Column(col, c.Gap)
		narrowed := make([]Size, len(col))
		for j, s := range col {
			narrowed[j] = Apply(s, h)
		}
		arranged := Column(narrowed, c.Gap)
		hf := Height(len(col), arranged.Height, c.MaxHeight)
		p.Slots[i] = Slot{
			Index:   i,
			Members: len(col),
			Natural: natural,
			Height:  hf,
			Scale:   h * hf,
			Fitted:  Apply(arranged, hf),
			X:       -c.TotalWidth/2 + float64(i)*spacing,
		}
	}
	return p
}

// PlanBands fits a stack of layers spread evenly across the canvas. All
// layers share the factor of [Band] with the spacing of [Spacing]; no
// height constraint is applied.
func PlanBands(c Canvas, layers [][]Size) Plan {
	spacing := Spacing(c.TotalWidth, len(layers))

	naturals := make([]Size, len(layers))
	widths := make([]float64, len(layers))
	for i, layer := range layers {
		naturals[i] = Column(layer, c.Gap)
		widths[i] = naturals[i].Width
	}
	f := Band(spacing, widths)

	p := Plan{
		Horizontal: f,
		SlotWidth:  spacing,
		Spacing:    spacing,
		Slots:      make([]Slot, len(layers)),
	}
	for i := range layers {
		p.Slots[i] = Slot{
			Index:   i,
			Members: len(layers[i]),
			Natural: naturals[i],
			Height:  1,
			Scale:   f,
			Fitted:  Apply(naturals[i], f),
			X:       -c.TotalWidth/2 + float64(i)*spacing,
		}
	}
	return p
}

// Scales returns the final factor of every slot, in slot order.
func (p Plan) Scales() []float64 {
	out := make([]float64, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = s.Scale
	}
	return out
}
