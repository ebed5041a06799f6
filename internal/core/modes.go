package core

import (
	"fmt"
	"strings"
)

// Mode is an osu! ruleset.
type Mode int

const (
	ModeStandard Mode = iota
	ModeMania
	ModeTaiko
	ModeCatch
)

// AllModes lists every known mode in display order.
var AllModes = []Mode{ModeStandard, ModeMania, ModeTaiko, ModeCatch}

// UnknownMode is shown for wire values outside the known set.
const UnknownMode = "unknown mode"

// String returns the user-facing name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeMania:
		return "mania"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "catch"
	default:
		return UnknownMode
	}
}

// WireValue returns the identifier the osu! API uses for the mode.
func (m Mode) WireValue() string {
	switch m {
	case ModeStandard:
		return "osu"
	case ModeMania:
		return "mania"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "fruits"
	default:
		return ""
	}
}

// ParseMode accepts either the user-facing or the wire name of a mode.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, mode := range AllModes {
		if normalized == mode.String() || normalized == mode.WireValue() {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (expected one of: standard, mania, taiko, catch)", value)
}

// ParseModes parses a list of modes, dropping duplicates.
func ParseModes(values []string) ([]Mode, error) {
	modes := make([]Mode, 0, len(values))
	seen := make(map[Mode]bool, len(values))
	for _, value := range values {
		mode, err := ParseMode(value)
		if err != nil {
			return nil, err
		}
		if seen[mode] {
			continue
		}
		seen[mode] = true
		modes = append(modes, mode)
	}
	return modes, nil
}

// DisplayMode translates a wire mode value to its user-facing name.
func DisplayMode(wire string) string {
	for _, mode := range AllModes {
		if wire == mode.WireValue() {
			return mode.String()
		}
	}
	return UnknownMode
}
