package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"tickmill/internal/domain"
)

func recordWith(fields map[string]string) domain.Record {
	rec := domain.Record{}
	for k, v := range fields {
		rec[k] = domain.FieldValue{Value: v, Confidence: 90}
	}
	return rec.Complete()
}

func goodRecord() domain.Record {
	return recordWith(map[string]string{
		"ticket_number":    "T-42",
		"transaction_date": "2026-02-17",
		"transaction_time": "09:15",
		"vendor_name":      "CEMEX",
		"net_weight_tons":  "21.25",
	})
}

func TestCheckAcceptsWellFormedRecord(t *testing.T) {
	assert.NoError(t, Check(goodRecord()))
}

func TestCheckRejectsEmptyTicketNumber(t *testing.T) {
	rec := goodRecord()
	rec["ticket_number"] = domain.FieldValue{}

	err := Check(rec)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestCheckRejectsMalformedDate(t *testing.T) {
	rec := goodRecord()
	rec["transaction_date"] = domain.FieldValue{Value: "02/17/2026", Confidence: 90}

	err := Check(rec)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestCheckRejectsImpossibleDate(t *testing.T) {
	rec := goodRecord()
	rec["transaction_date"] = domain.FieldValue{Value: "2026-13-40", Confidence: 90}

	err := Check(rec)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestCheckRejectsNonNumericWeight(t *testing.T) {
	rec := goodRecord()
	rec["net_weight_tons"] = domain.FieldValue{Value: "twenty", Confidence: 90}

	err := Check(rec)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}

func TestCheckAcceptsCommaSeparatedWeight(t *testing.T) {
	rec := goodRecord()
	rec["net_weight_tons"] = domain.FieldValue{Value: "21.25", Confidence: 90}
	assert.NoError(t, Check(rec))
}

func TestWarningsDoNotFailCheck(t *testing.T) {
	rec := goodRecord()
	// Implausibly heavy, bad time format, missing vendor: warnings only.
	rec["net_weight_tons"] = domain.FieldValue{Value: "500", Confidence: 90}
	rec["transaction_time"] = domain.FieldValue{Value: "9:15 AM", Confidence: 90}
	rec["vendor_name"] = domain.FieldValue{}

	assert.NoError(t, Check(rec))

	results := Record(rec)
	var warnings int
	for _, r := range results {
		if !r.Passed && r.Severity == SeverityWarning {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
}

func TestEmptyOptionalFieldsPass(t *testing.T) {
	rec := recordWith(map[string]string{"ticket_number": "1"})
	assert.NoError(t, Check(rec))
}
