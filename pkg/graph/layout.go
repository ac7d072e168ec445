package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

// namespace seeds deterministic layout ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/gradlayer/layout"))

// =============================================================================
// Layout - Renderer Hand-off Format
// =============================================================================

// Layout is the fitted, renderer-independent description of one drawing.
//
// Check Variant to see which fields are populated:
//
//	Tree ("tree"):
//	  - Layers: alternating tensor and node layers, top to bottom
//	  - CrossEdges: edges between layer members by index pair
//
//	Acyclic ("acyclic"):
//	  - Groups: one column per rank, left to right
//	  - Ranks, Order, MaxRank: the rank assignment
//	  - Edges, Crossings: the graph edges and their crossings between ranks
//
// Member sizes are natural sizes; each group or layer carries the single
// factor a renderer multiplies them by.
type Layout struct {
	ID        string `json:"id" bson:"_id"`
	Variant   string `json:"variant" bson:"variant"`
	Direction string `json:"direction" bson:"direction"`

	// Canvas
	Width      float64 `json:"width" bson:"width"`
	Height     float64 `json:"height" bson:"height"`
	TotalWidth float64 `json:"total_width" bson:"total_width"`
	MaxHeight  float64 `json:"max_height" bson:"max_height"`

	// Fit
	HorizontalScale float64 `json:"horizontal_scale" bson:"horizontal_scale"`
	SlotWidth       float64 `json:"slot_width,omitempty" bson:"slot_width,omitempty"`
	Spacing         float64 `json:"spacing,omitempty" bson:"spacing,omitempty"`

	// Acyclic
	MaxRank   int            `json:"max_rank,omitempty" bson:"max_rank,omitempty"`
	Ranks     map[string]int `json:"ranks,omitempty" bson:"ranks,omitempty"`
	Order     []string       `json:"order,omitempty" bson:"order,omitempty"`
	Groups    []Group        `json:"groups,omitempty" bson:"groups,omitempty"`
	Edges     []Edge         `json:"edges,omitempty" bson:"edges,omitempty"`
	Crossings int            `json:"crossings,omitempty" bson:"crossings,omitempty"`

	// Tree
	Layers     []Layer     `json:"layers,omitempty" bson:"layers,omitempty"`
	CrossEdges []CrossEdge `json:"cross_edges,omitempty" bson:"cross_edges,omitempty"`
}

// IsTree returns true if this is a tree layout.
func (l *Layout) IsTree() bool { return l.Variant == VariantTree }

// IsAcyclic returns true if this is an acyclic layout.
func (l *Layout) IsAcyclic() bool { return l.Variant == VariantAcyclic }

// Group is one rank column of an acyclic layout.
type Group struct {
	Rank    int      `json:"rank" bson:"rank"`
	Members []Member `json:"members" bson:"members"`
	Scale   float64  `json:"scale" bson:"scale"`
	X       float64  `json:"x" bson:"x"`
}

// Layer is one horizontal band of a tree layout.
type Layer struct {
	Label      string   `json:"label" bson:"label"`
	Kind       string   `json:"kind" bson:"kind"`
	TensorKind string   `json:"tensor_kind,omitempty" bson:"tensor_kind,omitempty"`
	Members    []Member `json:"members" bson:"members"`
	Scale      float64  `json:"scale" bson:"scale"`
}

// Member is one unit of a group or layer at its natural size.
type Member struct {
	ID     string   `json:"id" bson:"id"`
	Label  string   `json:"label" bson:"label"`
	Lines  []string `json:"lines,omitempty" bson:"lines,omitempty"`
	Width  float64  `json:"width" bson:"width"`
	Height float64  `json:"height" bson:"height"`
}

// CrossEdge connects member SourceIndex of layer SourceLayer to member
// DestIndex of layer DestLayer.
type CrossEdge struct {
	SourceLayer int `json:"source_layer" bson:"source_layer"`
	SourceIndex int `json:"source_index" bson:"source_index"`
	DestLayer   int `json:"dest_layer" bson:"dest_layer"`
	DestIndex   int `json:"dest_index" bson:"dest_index"`
}

// =============================================================================
// Identity
// =============================================================================

// Fingerprint returns the hex SHA-256 of the layout's JSON with the ID
// cleared. Equal drawings have equal fingerprints.
func (l Layout) Fingerprint() (string, error) {
	l.ID = ""
	data, err := json.Marshal(l)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "fingerprint layout")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// AssignID sets ID to the name-based UUID (version 5) of the fingerprint.
func (l *Layout) AssignID() error {
	fp, err := l.Fingerprint()
	if err != nil {
		return err
	}
	l.ID = uuid.NewSHA1(namespace, []byte(fp)).String()
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout")
	}
	return data, nil
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that the fields required by the variant are present.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeMalformedRecord, err, "unmarshal layout")
	}

	switch {
	case l.IsTree():
		if len(l.Layers) == 0 {
			return Layout{}, errors.Malformed("tree layout must contain layers")
		}
	case l.IsAcyclic():
		if len(l.Groups) == 0 {
			return Layout{}, errors.Malformed("acyclic layout must contain groups")
		}
	default:
		return Layout{}, errors.Malformed("unknown layout variant %q", l.Variant)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
		}
		return Layout{}, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	return UnmarshalLayout(data)
}
