package fit

import "math"

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Apply scales s by factor.
func Apply(s Size, factor float64) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

// Factor returns min(1, target/natural). A non-positive natural size needs
// no scaling and yields 1; a non-positive target yields 0.
func Factor(target, natural float64) float64 {
	if natural <= 0 {
		return 1
	}
	if target <= 0 {
		return 0
	}
	return math.Min(1, target/natural)
}

// Uniform returns one factor for every size sharing a slot of the given
// target size, derived from the largest of them.
func Uniform(target float64, sizes []float64) float64 {
	largest := 0.0
	for _, s := range sizes {
		largest = math.Max(largest, s)
	}
	return Factor(target, largest)
}

// SlotWidth returns the width of one rank slot: totalWidth/(maxRank+1).
func SlotWidth(totalWidth float64, maxRank int) float64 {
	return totalWidth / float64(max(maxRank, 0)+1)
}

// Horizontal returns the uniform factor that makes the widest unit fit in
// one rank slot of totalWidth split into maxRank+1 slots.
func Horizontal(totalWidth float64, maxRank int, widths []float64) float64 {
	return Uniform(SlotWidth(totalWidth, maxRank), widths)
}

// Band returns the uniform factor that makes the widest layer fit in the
// spacing between consecutive layers.
func Band(spacing float64, widths []float64) float64 {
	return Uniform(spacing, widths)
}

// Spacing returns the distance between consecutive slot centers when slots
// points are spread across totalWidth with the first and last at the edges.
// A single slot gets the full width.
func Spacing(totalWidth float64, slots int) float64 {
	if slots <= 1 {
		return totalWidth
	}
	return totalWidth / float64(slots-1)
}

// Height returns the factor for a group of the given member count and
// height. Groups with a single member are never scaled; larger groups are
// scaled down to maxHeight when taller.
func Height(members int, height, maxHeight float64) float64 {
	if members > 1 && height > maxHeight {
		return maxHeight / height
	}
	return 1
}

// Column returns the bounding size of sizes arranged top to bottom with gap
// between consecutive members.
func Column(sizes []Size, gap float64) Size {
	var out Size
	for i, s := range sizes {
		out.Width = math.Max(out.Width, s.Width)
		out.Height += s.Height
		if i > 0 {
			out.Height += gap
		}
	}
	return out
}
