package service

import "strings"

// CoordinateTransformer converts a WGS84 position into the alternate datum
// stored next to it on every site.
type CoordinateTransformer interface {
	Transform(lat, lon float64) (float64, float64)
}

// IdentityTransformer treats the alternate datum as equal to WGS84. The
// offset between the two is well under a metre across the served area.
type IdentityTransformer struct{}

func (IdentityTransformer) Transform(lat, lon float64) (float64, float64) {
	return lat, lon
}

// NormalizeZip keeps digits only and formats ZIP+4 as "12345-6789".
// Fewer than six digits are returned as is, without padding.
func NormalizeZip(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) > 5 {
		end := len(digits)
		if end > 9 {
			end = 9
		}
		return digits[:5] + "-" + digits[5:end]
	}
	return digits
}

// zip5 is the five digit prefix of a normalized ZIP.
func zip5(normalized string) string {
	if len(normalized) > 5 {
		return normalized[:5]
	}
	return normalized
}
