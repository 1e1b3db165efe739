// Package pharmeasy scrapes PharmEasy search result pages. Cards live in
// the page's <main> region and are matched by their hashed-but-stable
// ProductCard class names.
package pharmeasy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/extract"
	"github.com/arvindk/medcompare/internal/httputil"
	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

const Name = "pharmeasy"

var (
	mainOpenRe = regexp.MustCompile(`(?i)<main[\s\S]*?>`)
	cardRe     = regexp.MustCompile(`(?i)<a[^>]+class="[^"]*ProductCard_medicineUnitWrapper[^"]*"[^>]*>([\s\S]*?)</a>`)
	nameRe     = regexp.MustCompile(`(?i)<h1[^>]*class="[^"]*ProductCard_medicineName[^"]*"[^>]*>([\s\S]*?)</h1>`)
	measureRe  = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*ProductCard_measurementUnit[^"]*"[^>]*>([\s\S]*?)</div>`)
	priceRe    = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*ProductCard_ourPrice[^"]*"[^>]*>([\s\S]*?)</div>`)
	mrpRe      = regexp.MustCompile(`(?i)<span[^>]*class="[^"]*ProductCard_striked[^"]*"[^>]*>([\s\S]*?)</span>`)
	discountRe = regexp.MustCompile(`(?i)<span[^>]*class="[^"]*ProductCard_gcdDiscountPercent[^"]*"[^>]*>([\s\S]*?)</span>`)
	imageRe    = regexp.MustCompile(`(?i)<img[^>]+src="([^"]+)"`)
	hrefRe     = regexp.MustCompile(`(?i)href="([^"]+)"`)
)

type Adapter struct {
	client  *http.Client
	sess    config.Session
	baseURL string
}

func New(client *http.Client, sess config.Session) *Adapter {
	return &Adapter{
		client:  client,
		sess:    sess,
		baseURL: "https://pharmeasy.in",
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	searchURL := fmt.Sprintf("%s/search/all?name=%s", a.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}
	req.Header.Set("Referer", a.baseURL)
	req.Header.Set("Cache-Control", "no-cache")
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

	mainHTML, ok := extractMain(string(body))
	if !ok {
		// The page rendered without a <main> region (interstitial, markup
		// drift). Fetched fine, so report empty rather than failing.
		source.ReportProgress(ctx, "pharmeasy: main region not found")
		return []models.Product{}, nil
	}
	return a.parseCards(mainHTML), nil
}

// extractMain narrows the page to its <main> region; everything outside it
// is chrome we never need to scan.
func extractMain(page string) (string, bool) {
	openLoc := mainOpenRe.FindStringIndex(page)
	closeIdx := strings.Index(strings.ToLower(page), "</main>")
	if openLoc == nil || closeIdx == -1 {
		return "", false
	}
	return page[openLoc[0] : closeIdx+len("</main>")], true
}

func (a *Adapter) parseCards(mainHTML string) []models.Product {
	var products []models.Product
	now := time.Now()

	for _, m := range cardRe.FindAllStringSubmatch(mainHTML, -1) {
		fullAnchor, content := m[0], m[1]

		name := extract.Field(content, nameRe)
		if name == "" {
			continue
		}

		p := models.Product{
			Name:      name,
			PackSize:  extract.Field(content, measureRe),
			Price:     extract.Amount(content, priceRe),
			MRP:       extract.Amount(content, mrpRe),
			Source:    Name,
			ScrapedAt: now,
		}
		if d := extract.Field(content, discountRe); d != "" {
			p.Discount = d
		}
		// Image and link sit in the raw anchor markup, not the card text.
		if im := imageRe.FindStringSubmatch(fullAnchor); im != nil {
			p.Image = im[1]
		}
		if hm := hrefRe.FindStringSubmatch(fullAnchor); hm != nil {
			p.URL = extract.AbsoluteURL(a.baseURL, hm[1])
		}

		products = append(products, p)
	}
	return products
}

// CheckPincode asks PharmEasy whether the postal code is serviceable.
// The endpoint sometimes answers 304 with an empty body when the client is
// considered cached, and occasionally a 2xx with a non-JSON body; both are
// tolerated with a placeholder payload, not treated as failures. The payload
// is display-only, so a lost body costs nothing.
func (a *Adapter) CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error) {
	source.ReportProgress(ctx, "Checking PharmEasy pincode "+pincode)

	reqURL := fmt.Sprintf("%s/apt-api/pincode/pincode?pincode=%s", a.baseURL, url.QueryEscape(pincode))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(a.baseURL, a.baseURL+"/") {
		req.Header[k] = v
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
	if status == http.StatusNotModified {
		return json.RawMessage(fmt.Sprintf(`{"status":%d}`, status)), nil
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("pharmeasy pincode API status %d", status)
	}
	if !json.Valid(body) {
		return json.RawMessage(fmt.Sprintf(`{"error":"Invalid JSON response","status":%d}`, status)), nil
	}
	return json.RawMessage(body), nil
}
