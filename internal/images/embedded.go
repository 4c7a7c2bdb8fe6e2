package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// pdfimages -p names files <root>-<page>-<num>.<ext>
var reImageFile = regexp.MustCompile(`^img-(\d+)-(\d+)\.([A-Za-z0-9]+)$`)

type imageFile struct {
	path string
	page int
	num  int
	ext  string
}

// ListEmbedded extracts every raster image stored in the PDF.
func (s *PDFSupplier) ListEmbedded(ctx context.Context, doc Document) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "labcheck-img-*")
	if err != nil {
		return Result{}, documentError(err)
	}
	defer s.cleanup(tmpDir)

	pdf, err := doc.materialize(tmpDir)
	if err != nil {
		return Result{}, documentError(err)
	}

	// pdfimages -j -png -p <in.pdf> <tmp/img>: JPEGs stay JPEG, everything else becomes PNG
	root := filepath.Join(tmpDir, "img")
	if _, errb, err := s.runner.Run(ctx, s.cfg.Pdfimages, "-j", "-png", "-p", pdf, root); err != nil {
		return Result{}, documentError(fmt.Errorf("pdfimages: %w: %s", err, errb))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return Result{}, documentError(err)
	}
	files := parseImageFiles(tmpDir, entries)

	var res Result
	for _, f := range files {
		if !constants.IsImageExt(f.ext) {
			s.logger.Debug("images.embedded.skip_format", "file", filepath.Base(f.path), "ext", f.ext)
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			res.Skipped = append(res.Skipped, &common.ImageExtractionError{Page: f.page, Cause: err})
			continue
		}
		if len(data) < s.cfg.MinImageBytes {
			s.logger.Debug("images.embedded.skip_small", "page", f.page, "bytes", len(data))
			continue
		}
		res.Candidates = append(res.Candidates, entity.ImageCandidate{
			Index:      len(res.Candidates),
			PageNumber: f.page,
			Source:     constants.SourceEmbedded,
			Format:     formatOf(f.ext),
			Data:       data,
			SizeBytes:  len(data),
		})
	}

	s.logger.Info("images.embedded.listed", "candidates", len(res.Candidates), "skipped", len(res.Skipped))
	return res, nil
}

// parseImageFiles keeps pdfimages outputs and orders them by page, then image number.
func parseImageFiles(dir string, entries []os.DirEntry) []imageFile {
	var files []imageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := reImageFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, _ := strconv.Atoi(m[1])
		num, _ := strconv.Atoi(m[2])
		files = append(files, imageFile{
			path: filepath.Join(dir, e.Name()),
			page: page,
			num:  num,
			ext:  constants.NormalizeExt(m[3]),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].page != files[j].page {
			return files[i].page < files[j].page
		}
		return files[i].num < files[j].num
	})
	return files
}

func formatOf(ext string) string {
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}
