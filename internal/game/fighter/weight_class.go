package fighter

import (
	"fmt"
	"strings"
)

// WeightClass is a competition division.
type WeightClass string

const (
	Flyweight        WeightClass = "Flyweight"
	Bantamweight     WeightClass = "Bantamweight"
	Featherweight    WeightClass = "Featherweight"
	Lightweight      WeightClass = "Lightweight"
	Welterweight     WeightClass = "Welterweight"
	Middleweight     WeightClass = "Middleweight"
	LightHeavyweight WeightClass = "Light Heavyweight"
	Heavyweight      WeightClass = "Heavyweight"
)

const defaultWeightClass = Lightweight

// WeightClasses lists divisions from lightest to heaviest.
var WeightClasses = []WeightClass{
	Flyweight, Bantamweight, Featherweight, Lightweight,
	Welterweight, Middleweight, LightHeavyweight, Heavyweight,
}

// ParseWeightClass matches s case-insensitively against WeightClasses.
// An empty string yields Lightweight.
func ParseWeightClass(s string) (WeightClass, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultWeightClass, nil
	}
	for _, wc := range WeightClasses {
		if strings.EqualFold(string(wc), s) {
			return wc, nil
		}
	}
	return "", fmt.Errorf("fighter: unknown weight class %q", s)
}
