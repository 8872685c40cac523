package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHHMM(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:00"},
		{90 * time.Minute, "01:30"},
		{75*time.Minute + 59*time.Second, "01:15"},
		{-15 * time.Minute, "-00:15"},
		{-(2*time.Hour + 5*time.Minute), "-02:05"},
		{123 * time.Hour, "123:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatHHMM(tt.in))
		})
	}
}

func TestParseHHMM(t *testing.T) {
	d, err := ParseHHMM("00:15")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = ParseHHMM("01:02:03")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)

	for _, bad := range []string{"", "15", "aa:bb", "01:75", "-1:00", "1:2:3:4"} {
		_, err := ParseHHMM(bad)
		assert.Error(t, err, bad)
	}
}
