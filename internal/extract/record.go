package extract

import (
	"encoding/json"
	"fmt"

	"tickmill/internal/domain"
)

// ParseRecord turns raw extraction output into a complete Record: every
// schema field present, confidences clamped, blanks at {"", 0}. Output that
// decodes as JSON but not as a field mapping is classified the same as no
// JSON at all.
func ParseRecord(text string) (domain.Record, error) {
	raw, err := DecodeFirst(text)
	if err != nil {
		return nil, err
	}

	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: decoded value is not a field record: %v", domain.ErrNoStructuredData, err)
	}
	return rec.Complete(), nil
}
