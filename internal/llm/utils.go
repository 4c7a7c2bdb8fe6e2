package llm

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectImage sniffs the MIME type of data and returns it with a short format name
// ("png", "jpeg", ...). Unknown content falls back to image/jpeg.
func DetectImage(data []byte) (mimeType, format string) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "image/jpeg", "jpeg"
	}
	mimeType = mt.String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType, strings.TrimPrefix(mimeType, "image/")
}

// DataURL renders data as a base64 data URL for chat vision inputs.
func DataURL(data []byte) string {
	mt, _ := DetectImage(data)
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}
