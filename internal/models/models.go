package models

import (
	"encoding/json"
	"time"
)

// Product is the normalized record every pharmacy adapter converges on.
// Name is the only mandatory field; a record without a resolvable name is
// dropped before it leaves the adapter. Price and MRP are nil (not zero)
// when the source exposes no value.
type Product struct {
	Name                 string   `json:"name"`
	PackSize             string   `json:"packSize,omitempty"`
	Price                *float64 `json:"price"`
	MRP                  *float64 `json:"mrp"`
	Discount             any      `json:"discount"`
	Delivery             string   `json:"delivery,omitempty"`
	Availability         string   `json:"availability,omitempty"`
	Image                string   `json:"image,omitempty"`
	URL                  string   `json:"url,omitempty"`
	Manufacturer         string   `json:"manufacturer,omitempty"`
	Composition          string   `json:"composition,omitempty"`
	SKU                  string   `json:"sku,omitempty"`
	PrescriptionRequired *bool    `json:"prescriptionRequired,omitempty"`
	HasRating            bool     `json:"hasRating,omitempty"`

	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// SourceResult is the per-source envelope in the combined search response.
// Failures never escape an adapter as anything other than this shape.
type SourceResult struct {
	Success  bool      `json:"success"`
	Products int       `json:"products"`
	Data     []Product `json:"data"`
	Error    string    `json:"error,omitempty"`
}

// SearchData groups per-source product arrays under the keys the UI expects.
type SearchData struct {
	OneMg     []Product `json:"oneMg"`
	Apollo    []Product `json:"apollo"`
	PharmEasy []Product `json:"pharmEasy"`
	Truemed   []Product `json:"truemed"`
	Netmed    []Product `json:"netmed"`
}

// CombinedResult is the merged response for a product search across all sources.
type CombinedResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    SearchData  `json:"data"`
	Meta    *SearchMeta `json:"meta,omitempty"`
}

// SearchMeta carries per-source diagnostics alongside the merged data.
type SearchMeta struct {
	Errors map[string]string `json:"errors,omitempty"`
	URLs   map[string]string `json:"urls,omitempty"`
}

// ServiceabilityResult wraps a source's raw delivery-availability payload.
// Schemas intentionally differ per source; the payload is informational only.
type ServiceabilityResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// CombinedServiceability holds one result per source, nil when the source
// was not queried (coordinate-based sources require lat+lon).
type CombinedServiceability struct {
	PharmEasy *ServiceabilityResult `json:"pharmeasy"`
	Truemed   *ServiceabilityResult `json:"truemed"`
	Netmed    *ServiceabilityResult `json:"netmed"`
	Apollo    *ServiceabilityResult `json:"apollo"`
	OneMg     *ServiceabilityResult `json:"oneMg"`
}

// Float returns a pointer to v, for the optional price fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
