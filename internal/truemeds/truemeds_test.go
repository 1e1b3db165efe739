package truemeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindk/medcompare/config"
)

const suggestionBody = `{
  "responseData": {
    "productList": [
      {
        "product": {
          "skuName": "Dolo 650mg Tablet 15",
          "mrp": 36.91,
          "sellingPrice": 29.53,
          "discount": 20,
          "packForm": "STRIP",
          "productImageUrl": "https://assets.truemeds.in/dolo-front.jpg,https://assets.truemeds.in/dolo-back.jpg",
          "productUrlSuffix": "medicine/dolo-650mg-tablet-15-tm-tacr1-071469"
        }
      },
      {
        "product": {
          "skuName": "Calpol 650mg Tablet 15",
          "mrp": 30.75,
          "sellingPrice": 27.06
        }
      },
      {
        "product": {
          "mrp": 10
        }
      }
    ]
  }
}`

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a := New(server.Client(), config.Session{})
	a.baseURL = server.URL
	return a
}

func TestSearchMapsSuggestions(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/CustomerService/getSearchSuggestion", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "dolo", q.Get("searchString"))
		assert.Equal(t, "SEARCH_SUGGESTION", q.Get("elasticSearchType"))
		assert.Equal(t, "20", q.Get("warehouseId"))
		w.Write([]byte(suggestionBody))
	})

	products, err := a.Search(context.Background(), "dolo")
	require.NoError(t, err)
	require.Len(t, products, 2)

	dolo := products[0]
	assert.Equal(t, "Dolo 650mg Tablet 15", dolo.Name)
	assert.Equal(t, "STRIP", dolo.PackSize)
	require.NotNil(t, dolo.Price)
	assert.InDelta(t, 29.53, *dolo.Price, 1e-9)
	require.NotNil(t, dolo.MRP)
	assert.InDelta(t, 36.91, *dolo.MRP, 1e-9)
	assert.Equal(t, "20%", dolo.Discount)
	assert.Equal(t, "https://assets.truemeds.in/dolo-front.jpg", dolo.Image)
	assert.Equal(t, "https://www.truemeds.in/medicine/dolo-650mg-tablet-15-tm-tacr1-071469", dolo.URL)

	calpol := products[1]
	assert.Equal(t, "Calpol 650mg Tablet 15", calpol.Name)
	assert.Nil(t, calpol.Discount)
	assert.Empty(t, calpol.Image)
	assert.Empty(t, calpol.URL)
}

func TestSearchEmptyResult(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData":{"productList":[]}}`))
	})

	products, err := a.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchUpstreamError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearchMalformedBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := a.Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestSearchURL(t *testing.T) {
	a := New(nil, config.Session{})
	u := a.SearchURL("dolo 650")

	assert.Contains(t, u, "https://nal.tmmumbai.in/CustomerService/getSearchSuggestion?")
	assert.Contains(t, u, "searchString=dolo+650")
	assert.Contains(t, u, "elasticSearchType=SEARCH_SUGGESTION")
}

func TestCheckPincode(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/CustomerService/v1/checkPincodeServiceability", r.URL.Path)
		assert.Equal(t, "110027", r.URL.Query().Get("pincode"))
		w.Write([]byte(`{"responseData":{"serviceable":true}}`))
	})

	raw, err := a.CheckPincode(context.Background(), "110027")
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseData":{"serviceable":true}}`, string(raw))
}

func TestCheckPincodeNon2xx(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := a.CheckPincode(context.Background(), "110027")
	assert.Error(t, err)
}
