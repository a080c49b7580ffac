package extract

import (
	"context"
	"encoding/json"
	"log"

	"tickmill/internal/domain"
	"tickmill/internal/port"
)

// Routing uses a small output budget and greedy decoding; the response is a
// three-field JSON object.
const (
	routingMaxTokens   = 500
	routingTemperature = 0.0
)

// Router classifies a document's issuing vendor and coarse rotation with a
// single inference call. Its output is advisory: any failure degrades to
// {UNKNOWN, 0} instead of failing the run.
type Router struct {
	invoker port.ModelInvoker
}

// NewRouter creates a Router backed by the given invoker.
func NewRouter(invoker port.ModelInvoker) *Router {
	return &Router{invoker: invoker}
}

// routingResponse models the object the routing prompt asks for.
type routingResponse struct {
	Vendor          string `json:"vendor"`
	RotationDegrees int    `json:"rotation_degrees"`
	HeaderText      string `json:"header_text"`
}

// Route runs the routing call against the normalized image. It never returns
// an error; transport failures and unparseable output both degrade to the
// default hint.
func (r *Router) Route(ctx context.Context, img *domain.NormalizedImage) domain.VendorHint {
	completion, err := r.invoker.Invoke(ctx, port.InvokeInput{
		Prompt:      BuildRoutingPrompt(),
		ImageBytes:  img.Bytes,
		ImageFormat: img.Format,
		MaxTokens:   routingMaxTokens,
		Temperature: routingTemperature,
	})
	if err != nil {
		log.Printf("extract.Router: routing call failed, using default hint: %v", err)
		return domain.DefaultHint()
	}

	raw, err := DecodeFirst(completion)
	if err != nil {
		log.Printf("extract.Router: unparseable routing response, using default hint: %v", err)
		return domain.DefaultHint()
	}

	var resp routingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Printf("extract.Router: malformed routing object, using default hint: %v", err)
		return domain.DefaultHint()
	}

	hint := domain.VendorHint{
		Vendor:      domain.MatchVendor(resp.Vendor),
		RawTextRead: resp.HeaderText,
	}
	if domain.ValidRotations[resp.RotationDegrees] {
		hint.RotationDegrees = resp.RotationDegrees
	}
	return hint
}
