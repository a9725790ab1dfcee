package emotion

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"strings"

	// Snapshot formats accepted from browsers.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrNoImage is returned when a payload holds no image bytes.
var ErrNoImage = errors.New("no image data")

// Frame is a decoded snapshot.
type Frame struct {
	Image  image.Image
	Format string
}

// StripDataURL drops an optional "data:<mime>;base64," header.
func StripDataURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if idx := strings.Index(raw, ","); idx >= 0 {
			return strings.TrimSpace(raw[idx+1:])
		}
		return ""
	}
	return raw
}

// DecodeFrame decodes a base64 (optionally data-URL) image.
func DecodeFrame(raw string) (*Frame, error) {
	payload := StripDataURL(raw)
	if payload == "" {
		return nil, ErrNoImage
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Frame{Image: img, Format: format}, nil
}

// RGB returns the frame as an opaque RGBA image, dropping alpha and palette.
func (f *Frame) RGB() *image.RGBA {
	bounds := f.Image.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), f.Image, bounds.Min, draw.Over)
	return dst
}

// JPEG re-encodes the frame as an RGB JPEG, the format classifiers accept.
func (f *Frame) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.RGB(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL returns the JPEG rendition of the frame as a data URL.
func (f *Frame) DataURL() (string, error) {
	data, err := f.JPEG()
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	var firstErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
