// Package truemeds queries the TrueMeds search-suggestion API, a plain JSON
// endpoint behind browser CORS headers. No HTML parsing is needed here.
package truemeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/httputil"
	"github.com/arvindk/medcompare/internal/models"
	"github.com/arvindk/medcompare/internal/source"
)

const Name = "truemeds"

const siteURL = "https://www.truemeds.in"

type Adapter struct {
	client  *http.Client
	sess    config.Session
	baseURL string
}

func New(client *http.Client, sess config.Session) *Adapter {
	return &Adapter{
		client:  client,
		sess:    sess,
		baseURL: "https://nal.tmmumbai.in",
	}
}

func (a *Adapter) Name() string { return Name }

type suggestionResponse struct {
	ResponseData struct {
		ProductList []struct {
			Product tmProduct `json:"product"`
		} `json:"productList"`
	} `json:"responseData"`
}

type tmProduct struct {
	SKUName          string   `json:"skuName"`
	MRP              *float64 `json:"mrp"`
	SellingPrice     *float64 `json:"sellingPrice"`
	Discount         *float64 `json:"discount"`
	PackForm         string   `json:"packForm"`
	ProductImageURL  string   `json:"productImageUrl"`
	ProductURLSuffix string   `json:"productUrlSuffix"`
}

// SearchURL returns the exact suggestion-API URL a query produces. It is
// echoed in the combined response meta for debugging upstream behavior.
func (a *Adapter) SearchURL(query string) string {
	params := url.Values{}
	params.Set("searchString", query)
	params.Set("isMultiSearch", "true")
	params.Set("elasticSearchType", "SEARCH_SUGGESTION")
	params.Set("warehouseId", "20")
	params.Set("variantId", "18")
	params.Set("searchVariant", "N")
	params.Set("orderConfirmSrc", "WEBSITE")
	params.Set("sourceVersion", "TM_WEBSITE_V_4.6.2")
	return a.baseURL + "/CustomerService/getSearchSuggestion?" + params.Encode()
}

func (a *Adapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.SearchURL(query), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(siteURL, siteURL+"/") {
		req.Header[k] = v
	}
	if a.sess.UserAgent != "" {
		req.Header.Set("User-Agent", a.sess.UserAgent)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("suggestion API status %d", status)
	}

	var resp suggestionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode suggestion response: %w", err)
	}

	now := time.Now()
	products := make([]models.Product, 0, len(resp.ResponseData.ProductList))
	for _, item := range resp.ResponseData.ProductList {
		tp := item.Product
		if tp.SKUName == "" {
			continue
		}
		p := models.Product{
			Name:      tp.SKUName,
			PackSize:  tp.PackForm,
			Price:     tp.SellingPrice,
			MRP:       tp.MRP,
			Source:    Name,
			ScrapedAt: now,
		}
		if tp.Discount != nil {
			// Pre-formatted for display, matching the site's own card text.
			p.Discount = fmt.Sprintf("%v%%", *tp.Discount)
		}
		if tp.ProductImageURL != "" {
			// The field may hold a comma-separated list; first entry is the card image.
			p.Image = strings.SplitN(tp.ProductImageURL, ",", 2)[0]
		}
		if tp.ProductURLSuffix != "" {
			p.URL = siteURL + "/" + tp.ProductURLSuffix
		}
		products = append(products, p)
	}
	return products, nil
}

// CheckPincode asks TrueMeds whether the postal code is serviceable.
func (a *Adapter) CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error) {
	source.ReportProgress(ctx, "Checking TrueMeds pincode "+pincode)

	reqURL := fmt.Sprintf("%s/CustomerService/v1/checkPincodeServiceability?pincode=%s", a.baseURL, url.QueryEscape(pincode))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.JSONAPIHeaders(siteURL, siteURL+"/") {
		req.Header[k] = v
	}
	if a.sess.UserAgent != "" {
		req.Header.Set("User-Agent", a.sess.UserAgent)
	}

	body, status, err := httputil.Fetch(a.client, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("truemeds pincode API status %d", status)
	}
	return json.RawMessage(body), nil
}
