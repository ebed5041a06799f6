package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"standard", ModeStandard, false},
		{"osu", ModeStandard, false},
		{"Mania", ModeMania, false},
		{" taiko ", ModeTaiko, false},
		{"catch", ModeCatch, false},
		{"fruits", ModeCatch, false},
		{"ctb", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.input)
		if tc.wantErr {
			require.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		require.Equal(t, tc.want, got, tc.input)
	}
}

func TestParseModesDropsDuplicates(t *testing.T) {
	modes, err := ParseModes([]string{"osu", "standard", "taiko"})
	require.NoError(t, err)
	require.Equal(t, []Mode{ModeStandard, ModeTaiko}, modes)

	_, err = ParseModes([]string{"taiko", "drums"})
	require.Error(t, err)
}

func TestModeWireRoundTrip(t *testing.T) {
	for _, mode := range AllModes {
		require.Equal(t, mode.String(), DisplayMode(mode.WireValue()))
	}
	require.Equal(t, UnknownMode, DisplayMode("standard"))
	require.Equal(t, UnknownMode, Mode(42).String())
}
