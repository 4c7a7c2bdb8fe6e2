package images

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/joseph-ayodele/labreport-signatures/internal/docintel"
)

// cropPadding keeps strokes that touch the reported polygon edge.
const cropPadding = 4

// cropRegion maps a polygon in page units onto the rendered page and crops it. The scale
// comes from the page width when known, else from inches at dpi.
func cropRegion(img image.Image, br docintel.BoundingRegion, page *docintel.Page, dpi int) (image.Image, error) {
	minX, minY, maxX, maxY, ok := br.Bounds()
	if !ok {
		return nil, fmt.Errorf("polygon has fewer than two points")
	}

	b := img.Bounds()
	scaleX, scaleY := float64(dpi), float64(dpi)
	if page != nil && page.Width > 0 && page.Height > 0 {
		scaleX = float64(b.Dx()) / page.Width
		scaleY = float64(b.Dy()) / page.Height
	}

	rect := image.Rect(
		int(math.Floor(minX*scaleX))-cropPadding,
		int(math.Floor(minY*scaleY))-cropPadding,
		int(math.Ceil(maxX*scaleX))+cropPadding,
		int(math.Ceil(maxY*scaleY))+cropPadding,
	).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("region %v lies outside the rendered page %v", rect, b)
	}
	return imaging.Crop(img, rect), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
