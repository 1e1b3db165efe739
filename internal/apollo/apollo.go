// Package apollo queries the Apollo 24/7 search API. Unlike the HTML
// sources this one is a structured JSON endpoint, so mapping is a fixed
// field list.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/httputil"
	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

const Name = "apollo"

const (
	storeURL     = "https://www.apollopharmacy.in"
	cdnPrefix    = "https://images.apollo247.in/pub/media"
	productsPage = 24
)

type Adapter struct {
	client     *http.Client
	sess       config.Session
	geoSess    config.Session
	searchURL  string
	gatewayURL string
}

func New(client *http.Client, sess, geoSess config.Session) *Adapter {
	return &Adapter{
		client:     client,
		sess:       sess,
		geoSess:    geoSess,
		searchURL:  "https://search.apollo247.com/v4/fullSearch",
		gatewayURL: "https://apigateway.apollo247.in",
	}
}

func (a *Adapter) Name() string { return Name }

type searchPayload struct {
	Query           string   `json:"query"`
	Page            int      `json:"page"`
	ProductsPerPage int      `json:"productsPerPage"`
	SelSortBy       string   `json:"selSortBy"`
	Filters         []string `json:"filters"`
}

type searchResponse struct {
	Data struct {
		ProductDetails struct {
			Products []apolloProduct `json:"products"`
		} `json:"productDetails"`
	} `json:"data"`
}

type apolloProduct struct {
	Name               string   `json:"name"`
	URLKey             string   `json:"urlKey"`
	Thumbnail          string   `json:"thumbnail"`
	UnitSize           string   `json:"unitSize"`
	Price              *float64 `json:"price"`
	SpecialPrice       *float64 `json:"specialPrice"`
	DiscountPercentage *float64 `json:"discountPercentage"`
}

func (a *Adapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	payload, err := json.Marshal(searchPayload{
		Query:           query,
		Page:            1,
		ProductsPerPage: productsPage,
		SelSortBy:       "relevance",
		Filters:         []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", storeURL)
	req.Header.Set("Referer", storeURL+"/")
	req.Header.Set("X-App-Os", "web")
	if a.sess.Authorization != "" {
		req.Header.Set("Authorization", a.sess.Authorization)
	}
	if a.sess.UserAgent != "" {
		req.Header.Set("User-Agent", a.sess.UserAgent)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("search API status %d: %s", status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	now := time.Now()
	products := make([]models.Product, 0, len(resp.Data.ProductDetails.Products))
	for _, ap := range resp.Data.ProductDetails.Products {
		if ap.Name == "" {
			continue
		}
		p := models.Product{
			Name:      ap.Name,
			PackSize:  ap.UnitSize,
			Price:     ap.SpecialPrice,
			MRP:       ap.Price,
			URL:       storeURL + "/otc/" + ap.URLKey,
			Source:    Name,
			ScrapedAt: now,
		}
		if ap.SpecialPrice == nil {
			p.Price = ap.Price
		}
		if ap.Thumbnail != "" {
			p.Image = cdnPrefix + ap.Thumbnail
		}
		if ap.DiscountPercentage != nil {
			p.Discount = *ap.DiscountPercentage
		}
		products = append(products, p)
	}
	return products, nil
}

// CheckLocation asks the Apollo serviceability gateway whether the
// coordinates fall inside a deliverable zone.
func (a *Adapter) CheckLocation(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	source.ReportProgress(ctx, fmt.Sprintf("Checking Apollo serviceability for %.4f,%.4f", lat, lon))

	reqURL := fmt.Sprintf("%s/serviceability-api/v1/geocode/serviceable?latitude=%v&longitude=%v", a.gatewayURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(storeURL, storeURL+"/") {
		req.Header[k] = v
	}
	if a.geoSess.Authorization != "" {
		req.Header.Set("Authorization", a.geoSess.Authorization)
	}
	if a.geoSess.UserAgent != "" {
		req.Header.Set("User-Agent", a.geoSess.UserAgent)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("apollo serviceability API status %d", status)
	}
	return json.RawMessage(body), nil
}
