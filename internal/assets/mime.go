package assets

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME returns declared when it is usable, otherwise sniffs data.
func DetectMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// KindForMIME maps text payloads to KindRaw and everything else to KindImage.
func KindForMIME(mime string) Kind {
	if strings.HasPrefix(strings.ToLower(mime), "text/") {
		return KindRaw
	}
	return KindImage
}

// DataURI encodes data as a base64 data URI, the upload wire format.
func DataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
