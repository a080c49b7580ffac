package domain

import (
	"encoding/json"
	"regexp"
	"time"
)

// FieldValue is the atomic unit of extracted data: a plain value plus the
// model's confidence in it, on a 0-100 scale. Absent or undetectable data is
// {"", 0}, never a missing key.
type FieldValue struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

// UnmarshalJSON accepts both the {value, confidence} object form and a bare
// string (older extractions stored flat values with no confidence signal).
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Value = s
		f.Confidence = 0
		return nil
	}

	type alias FieldValue
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FieldValue(a)
	f.clamp()
	return nil
}

func (f *FieldValue) clamp() {
	if f.Value == "" {
		f.Confidence = 0
		return
	}
	if f.Confidence < 0 {
		f.Confidence = 0
	}
	if f.Confidence > 100 {
		f.Confidence = 100
	}
}

// Record is one extracted ticket: the fixed schema fields mapped to their
// confidence-bearing values.
type Record map[string]FieldValue

// Complete returns a copy of the record with every schema field present,
// filling gaps with {"", 0}. Keys outside the schema are dropped.
func (r Record) Complete() Record {
	out := make(Record, len(FieldNames))
	for _, name := range FieldNames {
		fv := r[name]
		fv.clamp()
		out[name] = fv
	}
	return out
}

// Field returns the value for a schema field, or the zero FieldValue.
func (r Record) Field(name string) FieldValue {
	return r[name]
}

// thousandsNumber matches numbers written with comma thousands separators,
// e.g. "20,000.00" or "-1,234".
var thousandsNumber = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

var commaStrip = regexp.MustCompile(`,`)

// CleanNumeric strips thousands separators from numeric-looking values so
// downstream numeric interpretation sees "20000.00", not "20,000.00".
// Non-numeric values pass through untouched.
func CleanNumeric(s string) string {
	if thousandsNumber.MatchString(s) {
		return commaStrip.ReplaceAllString(s, "")
	}
	return s
}

// Flatten reduces the record to plain field-to-value form for tabular
// rendering, applying numeric cleanup. Fields follow FieldNames order when
// iterated alongside that slice.
func (r Record) Flatten() map[string]string {
	out := make(map[string]string, len(FieldNames))
	for _, name := range FieldNames {
		out[name] = CleanNumeric(r[name].Value)
	}
	return out
}

// VendorHint is the router's advisory output: the matched vendor, a coarse
// rotation correction, and the raw header text the model read. Never
// persisted.
type VendorHint struct {
	Vendor          Vendor
	RotationDegrees int
	RawTextRead     string
}

// DefaultHint is what the router degrades to when inference or parsing fails.
func DefaultHint() VendorHint {
	return VendorHint{Vendor: VendorUnknown, RotationDegrees: 0}
}

// NormalizedImage is a decoded, upright, size-bounded image ready for
// inference. Orientation metadata is already baked into the pixel data.
type NormalizedImage struct {
	Bytes  []byte
	Format ImageFormat
	Width  int
	Height int
}

// ContentType returns the MIME type of the encoded bytes.
func (n *NormalizedImage) ContentType() string {
	return n.Format.ContentType()
}

// TriggerEvent identifies a newly created object in the input bucket.
// Key is URL-unescaped and serves as the canonical original upload key.
type TriggerEvent struct {
	Bucket string
	Key    string
}

// StatusMarker is the completion signal polled by the upload client, keyed
// by the original upload key. It transitions processing -> complete|error
// and is terminal thereafter.
type StatusMarker struct {
	Status      Status    `json:"status"`
	OriginalKey string    `json:"original_key"`
	CSVKey      string    `json:"csv_key,omitempty"`
	XLSXKey     string    `json:"xlsx_key,omitempty"`
	ImageKey    string    `json:"image_key,omitempty"`
	JSONKey     string    `json:"json_key,omitempty"`
	RenamedBase string    `json:"renamed_base,omitempty"`
	Message     string    `json:"message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
