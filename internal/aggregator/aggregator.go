// Package aggregator fans a medicine query out to every pharmacy source
// concurrently and merges the outcomes. Partial success is the normal
// case: one upstream failing never blocks the others, and the combined
// response only reads as a failure when validation fails or every source
// does.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

// ErrBadRequest marks validation failures the caller must fix; no adapter
// call is made for these.
var ErrBadRequest = errors.New("bad request")

const (
	MinResults = 1
	MaxResults = 10
)

// Aggregator orchestrates the five source adapters.
type Aggregator struct {
	OneMg     source.Adapter
	Apollo    source.Adapter
	PharmEasy source.Adapter
	TrueMeds  source.Adapter
	NetMeds   source.Adapter
}

func (a *Aggregator) adapters() []source.Adapter {
	return []source.Adapter{a.OneMg, a.Apollo, a.PharmEasy, a.TrueMeds, a.NetMeds}
}

// Search runs the query against all sources concurrently and merges the
// per-source envelopes. maxResults caps each source's slice after the
// adapter has extracted everything the page yields; out-of-range values
// are rejected, never clamped.
func (a *Aggregator) Search(ctx context.Context, query string, maxResults int) (*models.CombinedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: medicine name is required", ErrBadRequest)
	}
	if maxResults < MinResults || maxResults > MaxResults {
		return nil, fmt.Errorf("%w: maxResults must be between %d and %d", ErrBadRequest, MinResults, MaxResults)
	}

	adapters := a.adapters()
	results := make([]models.SourceResult, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range adapters {
		g.Go(func() error {
			results[i] = runSearch(gctx, ad, query, maxResults)
			return nil
		})
	}
	// Workers only report through results; Wait is just the barrier.
	_ = g.Wait()

	oneMg, apollo, pharmEasy, trueMeds, netMeds := results[0], results[1], results[2], results[3], results[4]

	combined := &models.CombinedResult{
		Success: oneMg.Success || apollo.Success || pharmEasy.Success || trueMeds.Success || netMeds.Success,
		Message: fmt.Sprintf("1mg: %d products, Apollo: %d products, PharmEasy: %d products, TrueMeds: %d products, NetMeds: %d products",
			oneMg.Products, apollo.Products, pharmEasy.Products, trueMeds.Products, netMeds.Products),
		Data: models.SearchData{
			OneMg:     oneMg.Data,
			Apollo:    apollo.Data,
			PharmEasy: pharmEasy.Data,
			Truemed:   trueMeds.Data,
			Netmed:    netMeds.Data,
		},
	}

	meta := &models.SearchMeta{}
	for i, r := range results {
		if !r.Success {
			if meta.Errors == nil {
				meta.Errors = make(map[string]string)
			}
			meta.Errors[adapters[i].Name()] = r.Error
		}
	}
	// Sources that build one canonical request URL echo it for debugging.
	for _, ad := range adapters {
		if ur, ok := ad.(interface{ SearchURL(query string) string }); ok {
			if meta.URLs == nil {
				meta.URLs = make(map[string]string)
			}
			meta.URLs[ad.Name()] = ur.SearchURL(query)
		}
	}
	if meta.Errors != nil || meta.URLs != nil {
		combined.Meta = meta
	}
	return combined, nil
}

// runSearch converts an adapter call into the per-source envelope. All
// failure modes end up as success:false here; nothing propagates.
func runSearch(ctx context.Context, ad source.Adapter, query string, maxResults int) models.SourceResult {
	products, err := ad.Search(ctx, query)
	if err != nil {
		source.ReportProgress(ctx, fmt.Sprintf("%s failed: %v", ad.Name(), err))
		return models.SourceResult{Success: false, Error: err.Error(), Data: []models.Product{}}
	}
	if len(products) > maxResults {
		products = products[:maxResults]
	}
	if products == nil {
		products = []models.Product{}
	}
	source.ReportProgress(ctx, fmt.Sprintf("%s: %d products", ad.Name(), len(products)))
	return models.SourceResult{Success: true, Products: len(products), Data: products}
}

// CheckPincode queries delivery serviceability. The postal-code sources are
// always asked; the coordinate sources only when both lat and lon are
// present (their entries stay nil otherwise).
func (a *Aggregator) CheckPincode(ctx context.Context, pincode string, lat, lon *float64) (*models.CombinedServiceability, error) {
	pincode = strings.TrimSpace(pincode)
	hasGeo := lat != nil && lon != nil
	if pincode == "" && !hasGeo {
		return nil, fmt.Errorf("%w: either pincode or location (lat, lon) is required", ErrBadRequest)
	}

	out := &models.CombinedServiceability{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out.PharmEasy = runPincode(gctx, a.PharmEasy, pincode)
		return nil
	})
	g.Go(func() error {
		out.Truemed = runPincode(gctx, a.TrueMeds, pincode)
		return nil
	})
	g.Go(func() error {
		out.Netmed = runPincode(gctx, a.NetMeds, pincode)
		return nil
	})
	if hasGeo {
		g.Go(func() error {
			out.Apollo = runGeo(gctx, a.Apollo, *lat, *lon)
			return nil
		})
		g.Go(func() error {
			out.OneMg = runGeo(gctx, a.OneMg, *lat, *lon)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func runPincode(ctx context.Context, ad source.Adapter, pincode string) *models.ServiceabilityResult {
	checker, ok := ad.(source.PincodeChecker)
	if !ok {
		return &models.ServiceabilityResult{Success: false, Message: ad.Name() + " does not support pincode lookup"}
	}
	if pincode == "" {
		return &models.ServiceabilityResult{Success: false, Message: "pincode is required"}
	}
	data, err := checker.CheckPincode(ctx, pincode)
	if err != nil {
		return &models.ServiceabilityResult{Success: false, Message: err.Error()}
	}
	return &models.ServiceabilityResult{Success: true, Data: data}
}

func runGeo(ctx context.Context, ad source.Adapter, lat, lon float64) *models.ServiceabilityResult {
	checker, ok := ad.(source.GeoChecker)
	if !ok {
		return &models.ServiceabilityResult{Success: false, Message: ad.Name() + " does not support location lookup"}
	}
	data, err := checker.CheckLocation(ctx, lat, lon)
	if err != nil {
		return &models.ServiceabilityResult{Success: false, Message: err.Error()}
	}
	return &models.ServiceabilityResult{Success: true, Data: data}
}
