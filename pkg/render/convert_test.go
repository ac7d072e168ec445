package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"><rect width="4" height="4"/></svg>`

func TestToPNGArguments(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		svg   []byte
		scale float64
	}{
		{"zero scale", []byte(square), 0},
		{"negative scale", []byte(square), -1},
		{"empty svg", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToPNG(ctx, tt.svg, tt.scale); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestToPNG(t *testing.T) {
	if !Available() {
		if _, err := ToPNG(context.Background(), []byte(square), 1); !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("error = %v, want UNSUPPORTED without rsvg-convert", err)
		}
		t.Skip("rsvg-convert not installed")
	}

	png, err := ToPNG(context.Background(), []byte(square), 2)
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG: % x", png[:min(len(png), 8)])
	}
}
