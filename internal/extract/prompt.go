package extract

import (
	"strings"

	"tickmill/internal/domain"
)

// BuildRoutingPrompt returns the prompt for the vendor routing call.
func BuildRoutingPrompt() string {
	var b strings.Builder
	b.WriteString(`You are looking at a photographed weigh ticket or invoice. Do three things:

1. Transcribe the most prominent header or logo text VERBATIM, exactly as printed.
2. Match that text against this closed vendor list: `)
	b.WriteString(vendorList())
	b.WriteString(`. Match on the printed name only. Do NOT infer the vendor from addresses, plant locations, or any outside knowledge. If the header text matches none of the listed vendors, answer UNKNOWN.
3. Report how many degrees the document must be rotated clockwise to read upright: one of 0, 90, 180, 270.

Return ONLY a raw JSON object, no markdown, no explanation:
{"vendor": "", "rotation_degrees": 0, "header_text": ""}`)
	return b.String()
}

// BuildExtractionPrompt returns the schema-constrained extraction prompt,
// specialized with layout guidance for the routed vendor.
func BuildExtractionPrompt(hint domain.VendorHint) string {
	var b strings.Builder
	b.WriteString(`You are a document data extraction assistant. Extract the following fields from this weigh ticket image.

For EVERY field return an object {"value": "...", "confidence": N} where N is an integer 0-100.

Confidence calibration rules:
- Lower the confidence whenever you infer or guess part of a value (for example assuming a cut-off year, or completing a partially visible digit), even if the guess is almost certainly right.
- Lower the confidence when legibility is poor (blur, glare, crumpled paper).
- If a field is absent or unreadable, return {"value": "", "confidence": 0}. Never fabricate data.

Field rules:
- transaction_date: format YYYY-MM-DD.
- transaction_time: format HH:MM, 24-hour.
- net_weight_tons: the net weight in tons as a plain number. Do not include thousands separators or units.
- Return all values as strings wrapped in double quotes.

Layout guidance: `)
	b.WriteString(HintFor(hint.Vendor))
	b.WriteString(`

Return ONLY a raw JSON object with exactly these keys, no markdown, no explanation:
{`)
	for i, name := range domain.FieldNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + name + `": {"value": "", "confidence": 0}`)
	}
	b.WriteString(`}`)
	return b.String()
}

func vendorList() string {
	names := make([]string, len(domain.KnownVendors))
	for i, v := range domain.KnownVendors {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
