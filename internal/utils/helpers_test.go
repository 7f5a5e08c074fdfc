package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2021-03-04":                "2021-03-04",
		"2021-03-04T10:11:12Z":      "2021-03-04",
		"2021-03-04T23:11:12-05:00": "2021-03-04",
		"2021-03-04 10:11:12":       "2021-03-04",
		"03/04/2021":                "2021-03-04",
		"Mar 4, 2021":               "2021-03-04",
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.Format("2006-01-02"), in)
	}

	_, err := ParseDate("")
	require.Error(t, err)
	_, err = ParseDate("yesterday")
	require.Error(t, err)
}

func TestToFloat(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(12.5), 12.5, true},
		{42, 42, true},
		{"100000", 100000, true},
		{" 1,250.75 ", 1250.75, true},
		{json.Number("7"), 7, true},
		{"", 0, false},
		{nil, 0, false},
		{"n/a", 0, false},
		{math.NaN(), 0, false},
		{map[string]any{}, 0, false},
	} {
		got, ok := ToFloat(tc.in)
		require.Equal(t, tc.ok, ok, "%v", tc.in)
		require.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestToInt(t *testing.T) {
	got, ok := ToInt("36")
	require.True(t, ok)
	require.Equal(t, int64(36), got)

	got, ok = ToInt(float64(12.9))
	require.True(t, ok)
	require.Equal(t, int64(12), got)

	_, ok = ToInt("")
	require.False(t, ok)
}

func TestNullIfEmpty(t *testing.T) {
	require.Nil(t, NullIfEmpty("  "))
	require.Equal(t, "x", NullIfEmpty("x"))

	s := "v"
	require.Equal(t, "v", StrOrEmpty(&s))
	require.Equal(t, "", StrOrEmpty(nil))
}
