package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindk/medcompare/internal/models"
)

// stubAdapter satisfies source.Adapter and, via the optional function
// fields, the pincode and location capabilities too.
type stubAdapter struct {
	name    string
	calls   atomic.Int32
	search  func(ctx context.Context, query string) ([]models.Product, error)
	pincode func(ctx context.Context, pincode string) (json.RawMessage, error)
	geo     func(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(ctx context.Context, query string) ([]models.Product, error) {
	s.calls.Add(1)
	return s.search(ctx, query)
}

func (s *stubAdapter) CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error) {
	s.calls.Add(1)
	return s.pincode(ctx, pincode)
}

// geoStubAdapter exposes only the coordinate capability.
type geoStubAdapter struct {
	stubAdapter
}

func (s *geoStubAdapter) CheckPincode(ctx context.Context, pincode string) (json.RawMessage, error) {
	panic("pincode lookup not supported")
}

func (s *geoStubAdapter) CheckLocation(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	s.calls.Add(1)
	return s.geo(ctx, lat, lon)
}

func okAdapter(name string, count int) *stubAdapter {
	return &stubAdapter{
		name: name,
		search: func(ctx context.Context, query string) ([]models.Product, error) {
			products := make([]models.Product, count)
			for i := range products {
				products[i] = models.Product{Name: fmt.Sprintf("%s product %d", name, i+1), Source: name}
			}
			return products, nil
		},
	}
}

func failAdapter(name, msg string) *stubAdapter {
	return &stubAdapter{
		name: name,
		search: func(ctx context.Context, query string) ([]models.Product, error) {
			return nil, errors.New(msg)
		},
	}
}

func newAggregator(oneMg, apollo, pharmEasy, trueMeds, netMeds *stubAdapter) *Aggregator {
	return &Aggregator{
		OneMg:     oneMg,
		Apollo:    apollo,
		PharmEasy: pharmEasy,
		TrueMeds:  trueMeds,
		NetMeds:   netMeds,
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	oneMg := okAdapter("1mg", 1)
	agg := newAggregator(oneMg, okAdapter("apollo", 1), okAdapter("pharmeasy", 1), okAdapter("truemeds", 1), okAdapter("netmeds", 1))

	_, err := agg.Search(context.Background(), "   ", 3)
	require.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, int32(0), oneMg.calls.Load())
}

func TestSearchRejectsOutOfRangeMax(t *testing.T) {
	adapters := []*stubAdapter{
		okAdapter("1mg", 1), okAdapter("apollo", 1), okAdapter("pharmeasy", 1),
		okAdapter("truemeds", 1), okAdapter("netmeds", 1),
	}
	agg := newAggregator(adapters[0], adapters[1], adapters[2], adapters[3], adapters[4])

	for _, max := range []int{0, -1, 11, 100} {
		_, err := agg.Search(context.Background(), "dolo", max)
		require.ErrorIs(t, err, ErrBadRequest, "maxResults=%d", max)
	}
	for _, a := range adapters {
		assert.Equal(t, int32(0), a.calls.Load(), "adapter %s must not run on invalid input", a.name)
	}
}

func TestSearchPartialFailure(t *testing.T) {
	agg := newAggregator(
		okAdapter("1mg", 2),
		failAdapter("apollo", "search API status 503"),
		okAdapter("pharmeasy", 1),
		failAdapter("truemeds", "connection refused"),
		okAdapter("netmeds", 3),
	)

	result, err := agg.Search(context.Background(), "dolo", 5)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "1mg: 2 products, Apollo: 0 products, PharmEasy: 1 products, TrueMeds: 0 products, NetMeds: 3 products", result.Message)

	assert.Len(t, result.Data.OneMg, 2)
	assert.Len(t, result.Data.PharmEasy, 1)
	assert.Len(t, result.Data.Netmed, 3)

	// failed sources carry empty slices, never nil
	require.NotNil(t, result.Data.Apollo)
	assert.Empty(t, result.Data.Apollo)
	require.NotNil(t, result.Data.Truemed)
	assert.Empty(t, result.Data.Truemed)

	require.NotNil(t, result.Meta)
	assert.Equal(t, "search API status 503", result.Meta.Errors["apollo"])
	assert.Equal(t, "connection refused", result.Meta.Errors["truemeds"])
	assert.Len(t, result.Meta.Errors, 2)
}

func TestSearchAllSourcesFail(t *testing.T) {
	agg := newAggregator(
		failAdapter("1mg", "boom"),
		failAdapter("apollo", "boom"),
		failAdapter("pharmeasy", "boom"),
		failAdapter("truemeds", "boom"),
		failAdapter("netmeds", "boom"),
	)

	result, err := agg.Search(context.Background(), "dolo", 3)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Meta)
	assert.Len(t, result.Meta.Errors, 5)
}

func TestSearchTruncatesPerSource(t *testing.T) {
	agg := newAggregator(
		okAdapter("1mg", 10),
		okAdapter("apollo", 3),
		okAdapter("pharmeasy", 0),
		okAdapter("truemeds", 4),
		okAdapter("netmeds", 1),
	)

	result, err := agg.Search(context.Background(), "dolo", 3)
	require.NoError(t, err)

	assert.Len(t, result.Data.OneMg, 3)
	assert.Len(t, result.Data.Apollo, 3)
	assert.Empty(t, result.Data.PharmEasy)
	assert.Len(t, result.Data.Truemed, 3)
	assert.Len(t, result.Data.Netmed, 1)
	assert.Equal(t, "1mg: 3 products, Apollo: 3 products, PharmEasy: 0 products, TrueMeds: 3 products, NetMeds: 1 products", result.Message)
	assert.Nil(t, result.Meta)
}

// urlStubAdapter additionally echoes its canonical request URL.
type urlStubAdapter struct {
	stubAdapter
}

func (s *urlStubAdapter) SearchURL(query string) string {
	return "https://api.example.test/suggest?q=" + query
}

func TestSearchEchoesRequestURLs(t *testing.T) {
	tm := &urlStubAdapter{}
	tm.name = "truemeds"
	tm.search = func(ctx context.Context, query string) ([]models.Product, error) {
		return []models.Product{{Name: "Dolo", Source: "truemeds"}}, nil
	}

	agg := &Aggregator{
		OneMg:     okAdapter("1mg", 1),
		Apollo:    okAdapter("apollo", 1),
		PharmEasy: okAdapter("pharmeasy", 1),
		TrueMeds:  tm,
		NetMeds:   okAdapter("netmeds", 1),
	}

	result, err := agg.Search(context.Background(), "dolo", 3)
	require.NoError(t, err)
	require.NotNil(t, result.Meta)
	assert.Nil(t, result.Meta.Errors)
	assert.Equal(t, "https://api.example.test/suggest?q=dolo", result.Meta.URLs["truemeds"])
	assert.Len(t, result.Meta.URLs, 1)
}

func geoAdapter(name string, fn func(ctx context.Context, lat, lon float64) (json.RawMessage, error)) *geoStubAdapter {
	a := &geoStubAdapter{}
	a.name = name
	a.geo = fn
	return a
}

func pincodeAdapter(name string, fn func(ctx context.Context, pincode string) (json.RawMessage, error)) *stubAdapter {
	return &stubAdapter{name: name, pincode: fn}
}

func TestCheckPincodeWithoutCoordinates(t *testing.T) {
	geoCalled := false
	agg := &Aggregator{
		OneMg: geoAdapter("1mg", func(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
			geoCalled = true
			return json.RawMessage(`{}`), nil
		}),
		Apollo: geoAdapter("apollo", func(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
			geoCalled = true
			return json.RawMessage(`{}`), nil
		}),
		PharmEasy: pincodeAdapter("pharmeasy", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			assert.Equal(t, "110027", pincode)
			return json.RawMessage(`{"serviceable":true}`), nil
		}),
		TrueMeds: pincodeAdapter("truemeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{"ok":1}`), nil
		}),
		NetMeds: pincodeAdapter("netmeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return nil, errors.New("netmeds API requires dynamic signature (403 Forbidden), integration blocked")
		}),
	}

	out, err := agg.CheckPincode(context.Background(), "110027", nil, nil)
	require.NoError(t, err)

	assert.Nil(t, out.OneMg)
	assert.Nil(t, out.Apollo)
	assert.False(t, geoCalled)

	require.NotNil(t, out.PharmEasy)
	assert.True(t, out.PharmEasy.Success)
	assert.JSONEq(t, `{"serviceable":true}`, string(out.PharmEasy.Data))

	require.NotNil(t, out.Truemed)
	assert.True(t, out.Truemed.Success)

	require.NotNil(t, out.Netmed)
	assert.False(t, out.Netmed.Success)
	assert.Contains(t, out.Netmed.Message, "dynamic signature")
}

func TestCheckPincodeWithCoordinates(t *testing.T) {
	lat, lon := 28.6139, 77.209
	agg := &Aggregator{
		OneMg: geoAdapter("1mg", func(ctx context.Context, gotLat, gotLon float64) (json.RawMessage, error) {
			assert.Equal(t, lat, gotLat)
			assert.Equal(t, lon, gotLon)
			return json.RawMessage(`{"city":"new delhi"}`), nil
		}),
		Apollo: geoAdapter("apollo", func(ctx context.Context, gotLat, gotLon float64) (json.RawMessage, error) {
			return nil, errors.New("apollo serviceability API status 502")
		}),
		PharmEasy: pincodeAdapter("pharmeasy", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		TrueMeds: pincodeAdapter("truemeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		NetMeds: pincodeAdapter("netmeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
	}

	out, err := agg.CheckPincode(context.Background(), "110027", &lat, &lon)
	require.NoError(t, err)

	require.NotNil(t, out.OneMg)
	assert.True(t, out.OneMg.Success)
	assert.JSONEq(t, `{"city":"new delhi"}`, string(out.OneMg.Data))

	require.NotNil(t, out.Apollo)
	assert.False(t, out.Apollo.Success)
	assert.Contains(t, out.Apollo.Message, "502")

	assert.True(t, out.PharmEasy.Success)
	assert.True(t, out.Truemed.Success)
	assert.True(t, out.Netmed.Success)
}

func TestCheckPincodeCoordinatesOnly(t *testing.T) {
	lat, lon := 19.076, 72.8777
	agg := &Aggregator{
		OneMg: geoAdapter("1mg", func(ctx context.Context, gotLat, gotLon float64) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		Apollo: geoAdapter("apollo", func(ctx context.Context, gotLat, gotLon float64) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		PharmEasy: pincodeAdapter("pharmeasy", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			t.Error("pincode lookup must not run without a pincode")
			return nil, nil
		}),
		TrueMeds: pincodeAdapter("truemeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			t.Error("pincode lookup must not run without a pincode")
			return nil, nil
		}),
		NetMeds: pincodeAdapter("netmeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			t.Error("pincode lookup must not run without a pincode")
			return nil, nil
		}),
	}

	out, err := agg.CheckPincode(context.Background(), "", &lat, &lon)
	require.NoError(t, err)

	assert.True(t, out.OneMg.Success)
	assert.True(t, out.Apollo.Success)

	// postal-code sources report the missing input, they never call upstream
	require.NotNil(t, out.PharmEasy)
	assert.False(t, out.PharmEasy.Success)
	assert.Equal(t, "pincode is required", out.PharmEasy.Message)
}

func TestCheckPincodeRejectsEmptyInput(t *testing.T) {
	agg := newAggregator(okAdapter("1mg", 0), okAdapter("apollo", 0), okAdapter("pharmeasy", 0), okAdapter("truemeds", 0), okAdapter("netmeds", 0))

	_, err := agg.CheckPincode(context.Background(), "  ", nil, nil)
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestCheckPincodeAdapterWithoutCapability(t *testing.T) {
	// the 1mg slot is filled with a search-only stub, so the geo branch
	// must degrade to a capability error instead of panicking
	lat, lon := 28.6, 77.2
	agg := &Aggregator{
		OneMg:  okAdapter("1mg", 0),
		Apollo: geoAdapter("apollo", func(ctx context.Context, gotLat, gotLon float64) (json.RawMessage, error) { return json.RawMessage(`{}`), nil }),
		PharmEasy: pincodeAdapter("pharmeasy", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		TrueMeds: pincodeAdapter("truemeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
		NetMeds: pincodeAdapter("netmeds", func(ctx context.Context, pincode string) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}),
	}

	out, err := agg.CheckPincode(context.Background(), "110027", &lat, &lon)
	require.NoError(t, err)
	require.NotNil(t, out.OneMg)
	assert.False(t, out.OneMg.Success)
	assert.Contains(t, out.OneMg.Message, "does not support location lookup")
}
