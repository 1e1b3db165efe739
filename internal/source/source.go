package source

import (
	"context"
	"encoding/json"

	"github.com/arvindk/medcompare/internal/models"
)

// Adapter speaks one pharmacy's request/response surface and converts it
// into normalized product records. Implementations report failure through
// the error return; the aggregator translates errors into the per-source
// envelope so one broken upstream never blocks the others.
//
// Search extracts everything the page yields; the caller applies the result
// cap afterwards.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// PincodeChecker is implemented by sources whose serviceability endpoint
// takes a postal code.
type PincodeChecker interface {
	CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error)
}

// GeoChecker is implemented by sources whose serviceability endpoint takes
// coordinates.
type GeoChecker interface {
	CheckLocation(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}
