package constants

import (
	"net/http"
	"strings"
)

// FileFormat is the coarse format family of an uploaded document.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for invoices and purchase orders.
var AllowedExtensions = map[string]FileFormat{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"heic": IMAGE,
	"heif": IMAGE,
}

// IsHEIC reports whether ext names a HEIC/HEIF photo, which needs converting before decoding.
func IsHEIC(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) FileFormat {
	return AllowedExtensions[NormalizeExt(ext)]
}

// SniffFormat inspects the leading bytes when the filename carries no usable extension.
func SniffFormat(data []byte) FileFormat {
	switch http.DetectContentType(data) {
	case "application/pdf":
		return PDF
	case "image/png", "image/jpeg":
		return IMAGE
	}
	return ""
}
