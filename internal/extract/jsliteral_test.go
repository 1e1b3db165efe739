package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSLiteralObject(t *testing.T) {
	v, err := ParseJSLiteral(`{name: 'Dolo 650', "price": 33.5, inStock: true, note: null, extra: undefined, tags: ["otc", 'fever',]}`)
	require.NoError(t, err)

	obj := v.(map[string]any)
	assert.Equal(t, "Dolo 650", obj["name"])
	assert.Equal(t, 33.5, obj["price"])
	assert.Equal(t, true, obj["inStock"])
	assert.Nil(t, obj["note"])
	assert.Nil(t, obj["extra"])
	assert.Equal(t, []any{"otc", "fever"}, obj["tags"])
}

func TestParseJSLiteralNumbers(t *testing.T) {
	for src, want := range map[string]float64{
		"-12":    -12,
		"0.5":    0.5,
		"1e3":    1000,
		"2.5e-1": 0.25,
	} {
		v, err := ParseJSLiteral(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, v, src)
	}
}

func TestParseJSLiteralStringEscapes(t *testing.T) {
	v, err := ParseJSLiteral(`"tab\there ₹ rupee \"q\""`)
	require.NoError(t, err)
	assert.Equal(t, "tab\there ₹ rupee \"q\"", v)
}

func TestParseJSLiteralComments(t *testing.T) {
	v, err := ParseJSLiteral(`{ /* hydrated */ a: 1, // count
		b: 2 }`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, v)
}

func TestParseJSLiteralIgnoresTrailingStatements(t *testing.T) {
	v, err := ParseJSLiteral(`{a: 1}; doSomethingElse();`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)
}

// The parser is the replacement for executing hydration scripts. Anything
// that is code rather than data must be rejected, so there is no path by
// which upstream script content can reach process, network or filesystem
// capabilities.
func TestParseJSLiteralRejectsCode(t *testing.T) {
	for _, src := range []string{
		`fetch("https://evil.example")`,
		`require('fs')`,
		`window.location`,
		`{a: fetch("x")}`,
		`{a: document.cookie}`,
		`[process.exit(1)]`,
		`function(){ return 1 }`,
		`truely`,
		`nullify`,
	} {
		_, err := ParseJSLiteral(src)
		assert.Error(t, err, src)
	}
}
