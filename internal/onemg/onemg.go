// Package onemg scrapes Tata 1mg search result pages. Product cards come
// out of a balanced-tag scan over the results grid; images and drug
// metadata come out of the page's embedded PRELOADED_STATE blob.
package onemg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/extract"
	"github.com/arvindk/medcompare/internal/httputil"
	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

const Name = "1mg"

const (
	gridMarker     = `<div class="row style__grid-container___3OfcL"`
	fallbackMarker = `<div class="style__container___3YFq7"`
	stateVar       = "window.PRELOADED_STATE"
)

var (
	anchorRe    = regexp.MustCompile(`(?i)<a[^>]+href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	titleRe     = regexp.MustCompile(`(?i)<span[^>]*class="[^"]*pro-title[^"]*"[^>]*>([\s\S]*?)</span>`)
	packRe      = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*pack-size[^"]*"[^>]*>([\s\S]*?)</div>`)
	deliveryRe  = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*delivery-date[^"]*"[^>]*>([\s\S]*?)</div>`)
	mrpRe       = regexp.MustCompile(`(?i)<span[^>]*class="[^"]*mrp-tag[^"]*"[^>]*>MRP</span><span[^>]*class="[^"]*cut-price[^"]*"[^>]*>₹([0-9.]+)</span>`)
	discountRe  = regexp.MustCompile(`(?i)([0-9]+)%\s*OFF`)
	ratingRe    = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*CardRatingDetail__ratings[^"]*"[^>]*>`)
	containerRe = regexp.MustCompile(`(?i)<div class="col-xs-12 style__container[^"]*">([\s\S]*?)</div>\s*</div>`)
	hrefRe      = regexp.MustCompile(`href="([^"]+)"`)

	// embedded-state metadata, searched inside a proximity window
	imageRe = regexp.MustCompile(`(?i)https?://[^"'\s>]+\.(?:png|jpe?g|webp)`)
	mfgRe   = regexp.MustCompile(`(?i)"manufacturer[_\w]*"\s*:\s*"([^"]+)"`)
	saltRe  = regexp.MustCompile(`(?i)"salt[_\w]*"\s*:\s*"([^"]+)"`)
	skuRe   = regexp.MustCompile(`(?i)"sku[_\w]*"\s*:\s*"?([0-9]+)"?`)
	rxRe    = regexp.MustCompile(`(?i)"rx_required[_\w]*"\s*:\s*(true|false)`)
)

// Proximity window around a product name occurrence in the state blob.
// The join is heuristic: near-duplicate names with overlapping windows can
// attach a neighbour's metadata. Accepted, the blob carries no stable key.
const (
	windowBefore = 500
	windowAfter  = 2000
)

type Adapter struct {
	client  *http.Client
	sess    config.Session
	baseURL string
	apiURL  string
}

func New(client *http.Client, sess config.Session) *Adapter {
	return &Adapter{
		client:  client,
		sess:    sess,
		baseURL: "https://www.1mg.com",
		apiURL:  "https://www.1mg.com",
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	searchURL := fmt.Sprintf("%s/search/all?name=%s&filter=true&sort=relevance", a.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}
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
	page := string(body)

	grid := extract.BalancedRegion(page, gridMarker, "div")
	if grid == "" {
		grid = extract.BalancedRegion(page, fallbackMarker, "div")
	}
	if grid == "" {
		// Markup drift, an interstitial, or a no-results page. The page was
		// fetched fine, so this is an empty result, not a source failure.
		source.ReportProgress(ctx, "1mg: results grid not found")
		return []models.Product{}, nil
	}

	products := parseGrid(grid, a.baseURL)
	if blob, ok := extract.StateBlob(page, stateVar); ok {
		enrichFromState(products, blob)
	}
	return products, nil
}

func parseGrid(grid, baseURL string) []models.Product {
	var products []models.Product
	now := time.Now()

	for _, m := range anchorRe.FindAllStringSubmatch(grid, -1) {
		href, inner := m[1], m[2]
		if !strings.Contains(inner, "pro-title") {
			continue // non-product anchor
		}

		p := models.Product{
			Name:      extract.Field(inner, titleRe),
			PackSize:  extract.Field(inner, packRe),
			Delivery:  extract.Field(inner, deliveryRe),
			URL:       extract.AbsoluteURL(baseURL, href),
			HasRating: ratingRe.MatchString(inner),
			Source:    Name,
			ScrapedAt: now,
		}
		if p.Name == "" {
			continue
		}

		// First ₹ amount is the selling price; a second one is the MRP
		// fallback when the explicit strike-through tag is absent.
		prices := extract.Rupees(inner)
		if len(prices) > 0 {
			p.Price = models.Float(prices[0])
		}
		if mm := mrpRe.FindStringSubmatch(inner); mm != nil {
			if v, err := strconv.ParseFloat(mm[1], 64); err == nil {
				p.MRP = models.Float(v)
			}
		} else if len(prices) > 1 {
			p.MRP = models.Float(prices[1])
		}
		if dm := discountRe.FindStringSubmatch(inner); dm != nil {
			if n, err := strconv.Atoi(dm[1]); err == nil {
				p.Discount = n
			}
		}

		products = append(products, p)
	}

	// Discontinued listings render outside product anchors.
	for _, m := range containerRe.FindAllStringSubmatch(grid, -1) {
		container := m[1]
		if !strings.Contains(strings.ToLower(container), "not-available") &&
			!strings.Contains(strings.ToLower(container), "discontinued") {
			continue
		}
		name := extract.Field(container, titleRe)
		if name == "" {
			continue
		}
		if hasProduct(products, name) {
			continue
		}
		p := models.Product{
			Name:         name,
			PackSize:     extract.Field(container, packRe),
			Availability: "Discontinued",
			Source:       Name,
			ScrapedAt:    now,
		}
		if hm := hrefRe.FindStringSubmatch(container); hm != nil {
			p.URL = extract.AbsoluteURL(baseURL, hm[1])
		}
		products = append(products, p)
	}

	return products
}

func hasProduct(products []models.Product, name string) bool {
	for _, p := range products {
		if p.Name == name {
			return true
		}
	}
	return false
}

// enrichFromState attaches image and drug metadata found near each product's
// name inside the PRELOADED_STATE blob. Best effort only.
func enrichFromState(products []models.Product, blob string) {
	for i := range products {
		p := &products[i]
		nameIdx := strings.Index(blob, p.Name)
		if nameIdx == -1 {
			continue
		}
		start := nameIdx - windowBefore
		if start < 0 {
			start = 0
		}
		end := nameIdx + windowAfter
		if end > len(blob) {
			end = len(blob)
		}
		segment := blob[start:end]

		if img := imageRe.FindString(segment); img != "" {
			p.Image = img
		}
		if m := mfgRe.FindStringSubmatch(segment); m != nil {
			p.Manufacturer = m[1]
		}
		if m := saltRe.FindStringSubmatch(segment); m != nil {
			p.Composition = m[1]
		}
		if m := skuRe.FindStringSubmatch(segment); m != nil {
			p.SKU = m[1]
		}
		if m := rxRe.FindStringSubmatch(segment); m != nil {
			p.PrescriptionRequired = models.Bool(m[1] == "true")
		}
	}
}

// CheckLocation asks 1mg whether the coordinates are serviceable. The
// endpoint is session-bound: without a valid cookie set it answers 403.
func (a *Adapter) CheckLocation(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	source.ReportProgress(ctx, fmt.Sprintf("Checking 1mg serviceability for %.4f,%.4f", lat, lon))

	reqURL := fmt.Sprintf("%s/api/v3/getGeolocation/%v,%v", a.apiURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(a.baseURL, a.baseURL+"/order-with-prescription") {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Hkp-Platform", "Healthkartplus-0.0.1-Desktop")
	req.Header.Set("X-Platform", "Desktop-0.0.1")
	if a.sess.UserAgent != "" {
		req.Header.Set("User-Agent", a.sess.UserAgent)
	}
	if a.sess.Cookie != "" {
		req.Header.Set("Cookie", a.sess.Cookie)
	}
	if a.sess.CSRFToken != "" {
		req.Header.Set("X-Csrf-Token", a.sess.CSRFToken)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("1mg geolocation API status %d", status)
	}
	return json.RawMessage(body), nil
}
