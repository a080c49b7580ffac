package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueUnmarshalObjectForm(t *testing.T) {
	var fv FieldValue
	err := json.Unmarshal([]byte(`{"value": "T-1042", "confidence": 85}`), &fv)
	require.NoError(t, err)
	assert.Equal(t, "T-1042", fv.Value)
	assert.Equal(t, 85, fv.Confidence)
}

func TestFieldValueUnmarshalBareString(t *testing.T) {
	var fv FieldValue
	err := json.Unmarshal([]byte(`"CEMEX"`), &fv)
	require.NoError(t, err)
	assert.Equal(t, "CEMEX", fv.Value)
	assert.Equal(t, 0, fv.Confidence)
}

func TestFieldValueClampsConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FieldValue
	}{
		{"over 100", `{"value": "x", "confidence": 150}`, FieldValue{"x", 100}},
		{"negative", `{"value": "x", "confidence": -5}`, FieldValue{"x", 0}},
		{"empty value forces zero", `{"value": "", "confidence": 90}`, FieldValue{"", 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fv FieldValue
			require.NoError(t, json.Unmarshal([]byte(tt.in), &fv))
			assert.Equal(t, tt.want, fv)
		})
	}
}

func TestRecordCompleteFillsSchemaAndDropsExtras(t *testing.T) {
	rec := Record{
		"ticket_number": {Value: "42", Confidence: 90},
		"stray_field":   {Value: "noise", Confidence: 50},
	}

	out := rec.Complete()

	assert.Len(t, out, len(FieldNames))
	assert.Equal(t, FieldValue{Value: "42", Confidence: 90}, out["ticket_number"])
	assert.Equal(t, FieldValue{}, out["vendor_name"])
	assert.NotContains(t, out, "stray_field")
}

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20,000.00", "20000.00"},
		{"1,234", "1234"},
		{"-1,234.5", "-1234.5"},
		{"12.5", "12.5"},
		{"CEMEX, INC", "CEMEX, INC"},
		{"1,23", "1,23"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanNumeric(tt.in), "input %q", tt.in)
	}
}

func TestRecordFlattenAppliesNumericCleanup(t *testing.T) {
	rec := Record{
		"net_weight_tons": {Value: "20,000.00", Confidence: 80},
		"vendor_name":     {Value: "CEMEX", Confidence: 95},
	}.Complete()

	flat := rec.Flatten()

	assert.Equal(t, "20000.00", flat["net_weight_tons"])
	assert.Equal(t, "CEMEX", flat["vendor_name"])
	assert.Equal(t, "", flat["ticket_number"])
}

func TestMatchVendor(t *testing.T) {
	tests := []struct {
		in   string
		want Vendor
	}{
		{"CEMEX", VendorCemex},
		{"cemex construction materials", VendorCemex},
		{"VULCAN", VendorVulcan},
		{"Martin Marietta Aggregates", VendorMartinMarietta},
		{"some roadside quarry", VendorUnknown},
		{"", VendorUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchVendor(tt.in), "input %q", tt.in)
	}
}

func TestFormatFromExtension(t *testing.T) {
	assert.Equal(t, FormatJPEG, FormatFromExtension("jpg"))
	assert.Equal(t, FormatJPEG, FormatFromExtension("JPEG"))
	assert.Equal(t, FormatPNG, FormatFromExtension("png"))
	assert.Equal(t, FormatJPEG, FormatFromExtension("tiff"))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusUploaded.Terminal())
}
