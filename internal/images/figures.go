package images

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/docintel"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

var errNoLayout = errors.New("layout analyzer not configured")

// ListLayoutFigures asks Document Intelligence for figure regions and crops each one out of
// a rendered page. A figure without a bounding region yields the whole first page.
func (s *PDFSupplier) ListLayoutFigures(ctx context.Context, doc Document) (Result, error) {
	if s.layout == nil {
		return Result{}, documentError(errNoLayout)
	}
	data, err := doc.bytes()
	if err != nil {
		return Result{}, documentError(err)
	}
	analysis, err := s.layout.Analyze(ctx, data)
	if err != nil {
		return Result{}, documentError(fmt.Errorf("layout analysis: %w", err))
	}
	if len(analysis.Figures) == 0 {
		s.logger.Info("images.figures.listed", "candidates", 0)
		return Result{}, nil
	}

	tmpDir, err := os.MkdirTemp("", "labcheck-fig-*")
	if err != nil {
		return Result{}, documentError(err)
	}
	defer s.cleanup(tmpDir)

	pdf, err := doc.materialize(tmpDir)
	if err != nil {
		return Result{}, documentError(err)
	}

	pages := map[int]image.Image{}
	render := func(page int) (image.Image, error) {
		if img, ok := pages[page]; ok {
			return img, nil
		}
		img, err := s.renderPage(ctx, pdf, tmpDir, page)
		if err != nil {
			return nil, err
		}
		pages[page] = img
		return img, nil
	}

	var res Result
	for _, fig := range orderFigures(analysis.Figures) {
		region, hasRegion := firstRegion(fig)
		page := 1
		if hasRegion && region.PageNumber > 0 {
			page = region.PageNumber
		}

		img, err := render(page)
		if err != nil {
			res.Skipped = append(res.Skipped, &common.ImageExtractionError{Page: page, Cause: err})
			continue
		}

		out := img
		if hasRegion {
			out, err = cropRegion(img, region, analysis.Page(page), s.cfg.DPI)
			if err != nil {
				res.Skipped = append(res.Skipped, &common.ImageExtractionError{Page: page, Cause: fmt.Errorf("figure %s: %w", fig.ID, err)})
				continue
			}
		}
		encoded, err := encodePNG(out)
		if err != nil {
			res.Skipped = append(res.Skipped, &common.ImageExtractionError{Page: page, Cause: err})
			continue
		}

		pageNumber := page
		if !hasRegion {
			pageNumber = 0
		}
		res.Candidates = append(res.Candidates, entity.ImageCandidate{
			Index:      len(res.Candidates),
			PageNumber: pageNumber,
			Source:     constants.SourceLayoutDetected,
			Format:     "png",
			Data:       encoded,
			SizeBytes:  len(encoded),
		})
	}

	s.logger.Info("images.figures.listed",
		"figures", len(analysis.Figures),
		"candidates", len(res.Candidates),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// renderPage runs pdftoppm for one page and decodes the PNG.
func (s *PDFSupplier) renderPage(ctx context.Context, pdf, dir string, page int) (image.Image, error) {
	n := strconv.Itoa(page)
	root := filepath.Join(dir, "page-"+n)
	// pdftoppm -r <dpi> -png -f N -l N -singlefile <in.pdf> <tmp/page-N>
	_, errb, err := s.runner.Run(ctx, s.cfg.Pdftoppm,
		"-r", strconv.Itoa(s.cfg.DPI), "-png", "-f", n, "-l", n, "-singlefile", pdf, root)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, errb)
	}
	return decodeFile(root + ".png")
}

func firstRegion(fig docintel.Figure) (docintel.BoundingRegion, bool) {
	for _, br := range fig.BoundingRegions {
		if _, _, _, _, ok := br.Bounds(); ok {
			return br, true
		}
	}
	return docintel.BoundingRegion{}, false
}

// orderFigures sorts by page then top edge so candidates follow reading order. Figures
// without a region keep their service order at the end.
func orderFigures(figs []docintel.Figure) []docintel.Figure {
	out := make([]docintel.Figure, len(figs))
	copy(out, figs)
	key := func(f docintel.Figure) (int, float64) {
		br, ok := firstRegion(f)
		if !ok {
			return int(^uint(0) >> 1), 0
		}
		_, minY, _, _, _ := br.Bounds()
		return br.PageNumber, minY
	}
	slices.SortStableFunc(out, func(a, b docintel.Figure) int {
		pa, ya := key(a)
		pb, yb := key(b)
		if pa != pb {
			return cmp.Compare(pa, pb)
		}
		return cmp.Compare(ya, yb)
	})
	return out
}
