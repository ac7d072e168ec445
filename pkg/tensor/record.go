package tensor

// Record is the serialized form of a tensor as written by the autodiff
// exporter: {"data": [...], "shape": [...], "offset": 0}.
//
// Offset is optional in the input; a missing offset is treated as 0.
// Shape is required, but an empty shape is valid (scalar).
type Record struct {
	Data   []float64 `json:"data"`
	Shape  []int     `json:"shape"`
	Offset *int      `json:"offset,omitempty"`
}

// FromRecord builds a Descriptor from its serialized form.
func FromRecord(r Record) (*Descriptor, error) {
	offset := 0
	if r.Offset != nil {
		offset = *r.Offset
	}
	return New(r.Data, r.Shape, offset)
}

// Record returns the serialized form of d. The shape is always written,
// even for scalars, so that the record round-trips through FromRecord.
func (d *Descriptor) Record() Record {
	offset := d.offset
	data := d.Data()
	if data == nil {
		data = []float64{}
	}
	return Record{
		Data:   data,
		Shape:  d.Shape(),
		Offset: &offset,
	}
}
