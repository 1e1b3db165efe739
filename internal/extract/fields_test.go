package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nameRe = regexp.MustCompile(`<h1[^>]*>([\s\S]*?)</h1>`)

func TestField(t *testing.T) {
	assert.Equal(t, "Dolo 650", Field(`<a><h1 class="n"> Dolo <b>650</b> </h1></a>`, nameRe))
	assert.Empty(t, Field(`<a><h2>no match</h2></a>`, nameRe))
}

func TestAmount(t *testing.T) {
	priceRe := regexp.MustCompile(`<div class="price">([\s\S]*?)</div>`)

	got := Amount(`<div class="price">₹34.50</div>`, priceRe)
	require.NotNil(t, got)
	assert.InDelta(t, 34.50, *got, 1e-9)

	assert.Nil(t, Amount(`<div class="other">₹34.50</div>`, priceRe))
	assert.Nil(t, Amount(`<div class="price">MRP</div>`, priceRe))
}

func TestRupees(t *testing.T) {
	block := `<span>₹33</span><span>MRP ₹<!-- -->36.91</span>`
	assert.Equal(t, []float64{33, 36.91}, Rupees(block))
}

func TestFirstRupeeAbsent(t *testing.T) {
	// nil, never zero, when no currency-prefixed number exists
	assert.Nil(t, FirstRupee("no price here, just 42 things"))
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://www.1mg.com/drugs/x-123", AbsoluteURL("https://www.1mg.com", "/drugs/x-123"))
	assert.Equal(t, "https://cdn.example/x.png", AbsoluteURL("https://www.1mg.com", "https://cdn.example/x.png"))
	assert.Empty(t, AbsoluteURL("https://www.1mg.com", ""))
}
