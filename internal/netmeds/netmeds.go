// Package netmeds scrapes NetMeds search result pages. The product data is
// only present as a window.__INITIAL_STATE__ hydration script, so the
// adapter isolates that script and decodes its assignment with the
// capability-free JS literal parser.
package netmeds

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/extract"
	"github.com/arvindk/medcompare/internal/httputil"
	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

const Name = "netmeds"

const stateVar = "window.__INITIAL_STATE__"

type Adapter struct {
	client  *http.Client
	sess    config.Session
	baseURL string
}

func New(client *http.Client, sess config.Session) *Adapter {
	return &Adapter{
		client:  client,
		sess:    sess,
		baseURL: "https://www.netmeds.com",
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort_on", "relevance")

	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/products?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}
	req.Header.Set("Referer", a.baseURL)
	req.Header.Set("Cache-Control", "max-age=0")
	if a.sess.Cookie != "" {
		req.Header.Set("Cookie", a.sess.Cookie)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("search page status %d", status)
	}

	// A page without decodable hydration state, or state without a product
	// list, is an empty result. Only transport problems fail the source.
	state, err := extract.StateObject(string(body), stateVar)
	if err != nil {
		source.ReportProgress(ctx, fmt.Sprintf("netmeds: %v", err))
		return []models.Product{}, nil
	}

	items, ok := dig(state, "productListingPage", "productlists", "items").([]any)
	if !ok {
		source.ReportProgress(ctx, "netmeds: no product items in page state")
		return []models.Product{}, nil
	}
	return a.mapItems(items), nil
}

func (a *Adapter) mapItems(items []any) []models.Product {
	now := time.Now()
	var products []models.Product
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		attrs, _ := item["attributes"].(map[string]any)

		name := str(item["name"])
		if name == "" {
			name = str(attrs["name"])
		}
		if name == "" {
			continue
		}

		// The mstar-discount attribute holds the discounted selling price,
		// not the percent; the percent lives in mstar-discountpct.
		price := num(attrs["mstar-discount"])
		discount := num(attrs["mstar-discountpct"])
		p := models.Product{
			Name:      name,
			PackSize:  str(attrs["mstar-packlabel"]),
			Price:     models.Float(price),
			MRP:       models.Float(deriveMRP(price, discount)),
			Discount:  discount,
			Source:    Name,
			ScrapedAt: now,
		}
		if medias, ok := item["medias"].([]any); ok && len(medias) > 0 {
			if m0, ok := medias[0].(map[string]any); ok {
				p.Image = str(m0["url"])
			}
		}
		if u := str(item["url"]); u != "" {
			p.URL = a.baseURL + u
		}
		products = append(products, p)
	}
	return products
}

// deriveMRP reverse-applies the discount percentage to the discounted
// price: mrp = price / (1 - discount/100), rounded to paise. With no
// discount the MRP equals the price.
func deriveMRP(price, discount float64) float64 {
	if discount <= 0 || discount >= 100 {
		return price
	}
	return math.Round(price/(1-discount/100)*100) / 100
}

// dig walks nested map keys, returning nil when any hop is missing.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num coerces the numeric-ish values the state blob holds (numbers or
// numeric strings) to float64, zero when unparseable.
func num(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

// CheckPincode asks NetMeds whether the postal code is serviceable. The
// logistics API sits behind a dynamic request signature this client cannot
// produce; the 403 it then returns is an expected, permanent condition.
func (a *Adapter) CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error) {
	source.ReportProgress(ctx, "Checking NetMeds pincode "+pincode)

	locationDetail, _ := json.Marshal(map[string]any{
		"country":          "INDIA",
		"country_iso_code": "IN",
		"pincode":          atoi(pincode),
	})

	reqURL := fmt.Sprintf("%s/api/service/application/logistics/v1.0/localities/pincode/%s", a.baseURL, url.QueryEscape(pincode))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(a.baseURL, a.baseURL+"/") {
		req.Header[k] = v
	}
	req.Header.Set("X-Currency-Code", "INR")
	req.Header.Set("X-Location-Detail", string(locationDetail))
	if a.sess.Authorization != "" {
		req.Header.Set("Authorization", a.sess.Authorization)
	}
	if a.sess.Cookie != "" {
		req.Header.Set("Cookie", a.sess.Cookie)
	}
	if a.sess.UserAgent != "" {
		req.Header.Set("User-Agent", a.sess.UserAgent)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusForbidden {
		return nil, fmt.Errorf("netmeds API requires dynamic signature (403 Forbidden), integration blocked")
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("netmeds pincode API status %d", status)
	}
	return json.RawMessage(body), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
