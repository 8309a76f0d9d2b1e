package amf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKnownEncodings(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want interface{}
	}{
		{"number", []byte{0x00, 0x40, 0x08, 0, 0, 0, 0, 0, 0}, float64(3)},
		{"bool true", []byte{0x01, 0x01}, true},
		{"bool false", []byte{0x01, 0x00}, false},
		{"string", []byte{0x02, 0x00, 0x04, 't', 'e', 's', 't'}, "test"},
		{"empty string", []byte{0x02, 0x00, 0x00}, ""},
		{"null", []byte{0x05}, nil},
		{"undefined", []byte{0x06}, Undefined{}},
		{"long string", append([]byte{0x0C, 0x00, 0x00, 0x00, 0x02}, 'h', 'i'), "hi"},
		{
			"object",
			[]byte{
				0x03,
				0x00, 0x03, 'a', 'p', 'p', 0x02, 0x00, 0x04, 'l', 'i', 'v', 'e',
				0x00, 0x00, 0x09,
			},
			map[string]interface{}{"app": "live"},
		},
		{
			"ecma array",
			[]byte{
				0x08, 0x00, 0x00, 0x00, 0x01,
				0x00, 0x01, 'k', 0x00, 0x3F, 0xF0, 0, 0, 0, 0, 0, 0,
				0x00, 0x00, 0x09,
			},
			map[string]interface{}{"k": float64(1)},
		},
		{
			"strict array",
			[]byte{0x0A, 0x00, 0x00, 0x00, 0x02, 0x05, 0x01, 0x01},
			[]interface{}{nil, true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeValue(bytes.NewReader(tc.raw))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeOneReturnsRemainder(t *testing.T) {
	raw := []byte{0x02, 0x00, 0x01, 'a', 0x05, 0x01, 0x01}
	v, rest, err := DecodeOne(raw)
	require.NoError(t, err)
	require.Equal(t, "a", v)
	require.Equal(t, []byte{0x05, 0x01, 0x01}, rest)

	v, rest, err = DecodeOne(rest)
	require.NoError(t, err)
	require.Nil(t, v)
	require.Equal(t, []byte{0x01, 0x01}, rest)
}

func TestDecodeAll(t *testing.T) {
	raw := []byte{
		0x02, 0x00, 0x07, '_', 'r', 'e', 's', 'u', 'l', 't',
		0x00, 0x40, 0x00, 0, 0, 0, 0, 0, 0,
		0x05,
	}
	vals, err := DecodeAll(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, []interface{}{"_result", float64(2), nil}, vals)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string][]byte{
		"invalid marker":    {0xFE},
		"truncated number":  {0x00, 0x01},
		"truncated string":  {0x02, 0x00, 0x05, 'a'},
		"truncated object":  {0x03, 0x00, 0x01, 'k'},
		"bare object end":   {0x09},
		"strict array size": {0x0A, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeValue(bytes.NewReader(raw))
			require.Error(t, err)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []interface{}{
		"connect",
		float64(2),
		map[string]interface{}{
			"app":            "live",
			"flashVer":       "WIN 32,0,0,465",
			"capabilities":   float64(239),
			"fpad":           false,
			"objectEncoding": float64(0),
		},
		nil,
		Undefined{},
		[]interface{}{float64(1), "x"},
	}

	raw, err := EncodeBytes(values...)
	require.NoError(t, err)

	decoded, err := DecodeAll(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncodeIntAndUint32AsNumber(t *testing.T) {
	raw, err := EncodeBytes(7, uint32(9))
	require.NoError(t, err)
	vals, err := DecodeAll(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, []interface{}{float64(7), float64(9)}, vals)
}

func TestEncodeObjectDeterministic(t *testing.T) {
	obj := map[string]interface{}{"b": float64(2), "a": float64(1)}
	first, err := EncodeBytes(obj)
	require.NoError(t, err)
	second, err := EncodeBytes(obj)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEncodeUnsupportedType(t *testing.T) {
	err := Encode(new(bytes.Buffer), struct{}{})
	require.Error(t, err)
}
