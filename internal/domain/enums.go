package domain

import "strings"

// ImageFormat represents the image encodings accepted by the inference service.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWEBP ImageFormat = "webp"
)

// SupportedFormats maps ImageFormat to its MIME content type.
var SupportedFormats = map[ImageFormat]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatWEBP: "image/webp",
}

// ContentType returns the MIME type for the format, defaulting to JPEG.
func (f ImageFormat) ContentType() string {
	if ct, ok := SupportedFormats[f]; ok {
		return ct
	}
	return "image/jpeg"
}

// FormatFromExtension maps a file extension (with or without dot) to an
// ImageFormat. Unknown extensions coerce to JPEG.
func FormatFromExtension(ext string) ImageFormat {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "webp":
		return FormatWEBP
	default:
		return FormatJPEG
	}
}

// Vendor identifies the issuing layout of a ticket, from a closed list.
type Vendor string

const (
	VendorCemex          Vendor = "CEMEX"
	VendorVulcan         Vendor = "VULCAN MATERIALS"
	VendorMartinMarietta Vendor = "MARTIN MARIETTA"
	VendorHolcim         Vendor = "HOLCIM"
	VendorCalPortland    Vendor = "CALPORTLAND"
	VendorUnknown        Vendor = "UNKNOWN"
)

// KnownVendors is the closed vendor list presented to the routing model.
// VendorUnknown is deliberately excluded; it is the fallback, not a match target.
var KnownVendors = []Vendor{
	VendorCemex,
	VendorVulcan,
	VendorMartinMarietta,
	VendorHolcim,
	VendorCalPortland,
}

// MatchVendor resolves free-text vendor output against the closed list by
// case-insensitive substring match in either direction. Unmatched text
// resolves to VendorUnknown.
func MatchVendor(s string) Vendor {
	needle := strings.ToUpper(strings.TrimSpace(s))
	if needle == "" {
		return VendorUnknown
	}
	for _, v := range KnownVendors {
		name := string(v)
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			return v
		}
	}
	return VendorUnknown
}

// ValidRotations are the coarse rotation corrections the router may report.
var ValidRotations = map[int]bool{0: true, 90: true, 180: true, 270: true}

// Status represents the lifecycle of one upload as seen by a polling client.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}
