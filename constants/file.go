package constants

import "strings"

// ImageExtensions holds the raster formats pdfimages can emit that we forward to a classifier.
var ImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"jp2":  {},
	"tif":  {},
	"tiff": {},
	"ppm":  {},
	"pbm":  {},
	"pgm":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without the dot) is a supported raster format.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// Output file suffixes, appended to the document stem.
const (
	SuffixExtractedText      = "_extracted_text.txt"
	SuffixSignatureDetection = "_signature_detection.json"
	SuffixEntities           = "_entities.json"
	SuffixReport             = "_report.xlsx"
	SuffixSignaturesParquet  = "_signatures.parquet"
)
