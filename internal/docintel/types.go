package docintel

import "strings"

type operation struct {
	Status        string         `json:"status"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult"`
	Error         *serviceError  `json:"error"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalyzeResult is the subset of the layout model output we consume.
type AnalyzeResult struct {
	Content string   `json:"content"`
	Pages   []Page   `json:"pages"`
	Figures []Figure `json:"figures"`
}

type Page struct {
	PageNumber int     `json:"pageNumber"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       string  `json:"unit"` // "inch" for PDFs, "pixel" for images
	Lines      []Line  `json:"lines"`
}

type Line struct {
	Content string    `json:"content"`
	Polygon []float64 `json:"polygon"`
}

type Figure struct {
	ID              string           `json:"id"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
	Caption         *Caption         `json:"caption,omitempty"`
}

type BoundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon"` // x1,y1,x2,y2,... in page units
}

type Caption struct {
	Content string `json:"content"`
}

// Page returns the page with the given 1-based number, or nil.
func (r *AnalyzeResult) Page(n int) *Page {
	for i := range r.Pages {
		if r.Pages[i].PageNumber == n {
			return &r.Pages[i]
		}
	}
	return nil
}

// Text joins page lines in reading order, one page per block.
func (r *AnalyzeResult) Text() string {
	if len(r.Pages) == 0 {
		return r.Content
	}
	var b strings.Builder
	for i, p := range r.Pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for j, l := range p.Lines {
			if j > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(l.Content)
		}
	}
	return b.String()
}

// Bounds returns the axis-aligned box around the polygon, or ok=false for fewer than
// two points.
func (br BoundingRegion) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	if len(br.Polygon) < 4 {
		return 0, 0, 0, 0, false
	}
	minX, minY = br.Polygon[0], br.Polygon[1]
	maxX, maxY = minX, minY
	for i := 2; i+1 < len(br.Polygon); i += 2 {
		x, y := br.Polygon[i], br.Polygon[i+1]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return minX, minY, maxX, maxY, true
}
