package emotion

import (
	_ "embed"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	xdraw "golang.org/x/image/draw"
)

// facefinder is the frontal face cascade shipped with pigo (MIT, see
// cascade/LICENSE).
//
//go:embed cascade/facefinder
var facefinder []byte

// PigoOptions tunes the cascade scan.
type PigoOptions struct {
	MinSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	// Threshold drops clustered detections whose score is below it.
	Threshold float32
}

// DefaultPigoOptions returns the settings of the pigo command line tool.
func DefaultPigoOptions() PigoOptions {
	return PigoOptions{
		MinSize:     20,
		ShiftFactor: 0.15,
		ScaleFactor: 1.15,
		IoU:         0.15,
		Threshold:   5.0,
	}
}

// PigoDetector runs a pixel-intensity cascade over a grayscale frame.
type PigoDetector struct {
	cascade *pigo.Pigo
	opts    PigoOptions
}

// LoadPigoDetector unpacks the cascade file at path. An empty path uses the
// embedded facefinder cascade.
func LoadPigoDetector(path string) (*PigoDetector, error) {
	if path == "" {
		return NewPigoDetector(facefinder, DefaultPigoOptions())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, err)
	}
	detector, err := NewPigoDetector(data, DefaultPigoOptions())
	if err != nil {
		return nil, fmt.Errorf("cascade %s: %w", path, err)
	}
	return detector, nil
}

// NewPigoDetector unpacks a cascade held in memory.
func NewPigoDetector(data []byte, opts PigoOptions) (detector *PigoDetector, err error) {
	// Unpack indexes straight into the buffer and panics on short input.
	defer func() {
		if r := recover(); r != nil {
			detector, err = nil, fmt.Errorf("unpack cascade: %v", r)
		}
	}()

	cascade, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	if opts.MinSize <= 0 {
		opts.MinSize = DefaultPigoOptions().MinSize
	}
	return &PigoDetector{cascade: cascade, opts: opts}, nil
}

// DetectFaces implements FaceDetector.
func (d *PigoDetector) DetectFaces(img image.Image) []Face {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols < d.opts.MinSize || rows < d.opts.MinSize {
		return nil
	}

	maxSize := cols
	if rows > maxSize {
		maxSize = rows
	}

	params := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(atOrigin(img)),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	detections := d.cascade.RunCascade(params, 0.0)
	detections = d.cascade.ClusterDetections(detections, d.opts.IoU)

	faces := make([]Face, 0, len(detections))
	for _, det := range detections {
		if det.Q < d.opts.Threshold {
			continue
		}
		faces = append(faces, Face{Row: det.Row, Col: det.Col, Scale: det.Scale, Score: det.Q})
	}
	return faces
}

// atOrigin moves img so its bounds start at (0,0); pigo reads pixels from
// the origin regardless of the image's bounds.
func atOrigin(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Min == (image.Point{}) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Copy(dst, image.Point{}, img, bounds, xdraw.Src, nil)
	return dst
}
