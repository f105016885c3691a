package model

import "strings"

// DefaultPinColor is drawn for markers without a usable color.
const DefaultPinColor = "#d32f2f"

// PinColor accepts #rgb and #rrggbb in any case and returns lowercase
// #rrggbb. Anything else maps to DefaultPinColor.
func PinColor(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "#") {
		return DefaultPinColor
	}
	hex := s[1:]
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return DefaultPinColor
		}
	}
	switch len(hex) {
	case 6:
		return s
	case 3:
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	default:
		return DefaultPinColor
	}
}
