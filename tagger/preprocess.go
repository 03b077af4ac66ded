package tagger

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const ImageSize = 448

// ErrDecode marks input that could not be parsed as an image, so the
// server can answer 400 instead of 500.
var ErrDecode = errors.New("undecodable image")

// Decode parses an encoded image using the registered format decoders.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Preprocess converts an image into the model's input layout: padded to
// a white square, resized to 448x448 bicubic, then flattened NHWC with
// BGR channel order and raw 0-255 values. WD14 graphs normalize
// internally, so no scaling is applied here.
func Preprocess(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	maxDim := max(h, w)

	// white padding
	canvas := imaging.New(maxDim, maxDim, color.White)
	img = imaging.Paste(canvas, img, image.Pt((maxDim-w)/2, (maxDim-h)/2))
	img = imaging.Resize(img, ImageSize, ImageSize, imaging.CatmullRom)

	out := make([]float32, ImageSize*ImageSize*3)
	i := 0
	for y := range ImageSize {
		for x := range ImageSize {
			r, g, b, _ := img.At(x, y).RGBA()
			out[i] = float32(b >> 8)
			out[i+1] = float32(g >> 8)
			out[i+2] = float32(r >> 8)
			i += 3
		}
	}
	return out
}
