package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = strings.Count(text, "\f")
	if pages == 0 {
		pages = 1
	}
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "labcheck-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("ocr.tempdir.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (page-1.png, page-2.png, ... possibly zero-padded)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNum(matches[i]) < pageNum(matches[j]) })
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.recognize(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), warns, nil
}

// recognize OCRs one image file with the cloud backend when configured, else tesseract.
func (e *Extractor) recognize(ctx context.Context, path string) (string, []string, error) {
	if e.vision == nil {
		return e.tesseractOCR(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	txt, err := e.vision.RecognizeImage(ctx, data)
	if err != nil {
		e.logger.Warn("ocr.vision.failed_fallback_tesseract", "path", path, "error", err)
		txt, warn, terr := e.tesseractOCR(ctx, path)
		return txt, append([]string{"azure vision: " + err.Error()}, warn...), terr
	}
	return txt, nil, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

// pageNum extracts N from ".../page-N.png"; pdftoppm zero-pads N for long documents.
func pageNum(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndexByte(base, '-')
	n, _ := strconv.Atoi(base[i+1:])
	return n
}
