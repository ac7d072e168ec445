package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

// rsvgBinary is the converter looked up on PATH.
const rsvgBinary = "rsvg-convert"

// ToPNG rasterizes svg with rsvg-convert. A scale of 2 doubles the pixel
// size of the SVG's own width and height. The conversion stops when ctx is
// cancelled.
//
// It returns UNSUPPORTED when rsvg-convert is not installed
// (brew install librsvg, apt install librsvg2-bin).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %g", scale)
	}
	if len(svg) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty svg")
	}
	return convert(ctx, svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

// Available reports whether the external converter can be found.
func Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

func convert(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s export needs %s from librsvg", format, rsvgBinary)
	}

	cmd := exec.CommandContext(ctx, path, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s rejected the svg: %s", rsvgBinary, strings.TrimSpace(stderr.String()))
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "run %s", rsvgBinary)
	}
	return out.Bytes(), nil
}
