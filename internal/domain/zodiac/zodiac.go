// Package zodiac holds the fixed lookup tables behind readings: the twelve year
// animals, their traits, the five elements and the colours used to draw them.
package zodiac

import "strings"

// AnchorYear is the year assigned to the first animal (Rat).
const AnchorYear = 1900

// Animals lists the zodiac in cycle order starting at AnchorYear.
var Animals = [12]string{
	"Rat", "Ox", "Tiger", "Rabbit", "Dragon", "Snake",
	"Horse", "Goat", "Monkey", "Rooster", "Dog", "Pig",
}

var traits = map[string]string{
	"Rat":     "clever and ambitious",
	"Ox":      "stubborn tank",
	"Tiger":   "brave and confident",
	"Rabbit":  "gentle and elegant",
	"Dragon":  "chaotic visionary",
	"Snake":   "sneaky legend",
	"Horse":   "energetic and free-spirited",
	"Goat":    "creative and empathetic",
	"Monkey":  "mischievous genius",
	"Rooster": "observant and hardworking",
	"Dog":     "loyal and honest",
	"Pig":     "generous and easy-going",
}

// Element is one of the five elements.
type Element string

const (
	Wood  Element = "Wood"
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Metal Element = "Metal"
	Water Element = "Water"
)

// Elements is the canonical display order.
var Elements = [5]Element{Wood, Fire, Earth, Metal, Water}

var elementColors = map[Element]string{
	Wood:  "#4CAF50",
	Fire:  "#FF5722",
	Earth: "#8D6E63",
	Metal: "#9E9E9E",
	Water: "#2196F3",
}

const (
	unknownColor  = "#9C27B0"
	unknownTraits = "mysterious"
)

// Sign returns the year animal for birthYear; years before AnchorYear wrap around.
func Sign(birthYear int) string {
	idx := (birthYear - AnchorYear) % 12
	if idx < 0 {
		idx += 12
	}
	return Animals[idx]
}

// HourSign returns the animal of the two-hour branch containing hour (23:00-00:59 is Rat).
func HourSign(hour int) string {
	if hour < 0 || hour > 23 {
		return ""
	}
	return Animals[((hour+1)/2)%12]
}

// Traits returns the short description for a sign.
func Traits(sign string) string {
	if t, ok := traits[sign]; ok {
		return t
	}
	return unknownTraits
}

// YearElement maps the last digit of the year to its element (0-1 Metal, 2-3 Water, 4-5 Wood, 6-7 Fire, 8-9 Earth).
func YearElement(birthYear int) Element {
	digit := birthYear % 10
	if digit < 0 {
		digit += 10
	}
	switch digit {
	case 0, 1:
		return Metal
	case 2, 3:
		return Water
	case 4, 5:
		return Wood
	case 6, 7:
		return Fire
	default:
		return Earth
	}
}

// ParseElement matches an element name case-insensitively.
func ParseElement(name string) (Element, bool) {
	for _, el := range Elements {
		if strings.EqualFold(string(el), strings.TrimSpace(name)) {
			return el, true
		}
	}
	return "", false
}

// ElementColor returns the chart colour for an element name.
func ElementColor(name string) string {
	if el, ok := ParseElement(name); ok {
		return elementColors[el]
	}
	return unknownColor
}

// SignColor pairs each sign with the colour of its associated element.
func SignColor(sign string) string {
	switch sign {
	case "Rat", "Ox":
		return elementColors[Water]
	case "Tiger", "Rabbit":
		return elementColors[Wood]
	case "Dragon", "Snake":
		return elementColors[Fire]
	case "Horse", "Goat", "Dog", "Pig":
		return elementColors[Earth]
	case "Monkey", "Rooster":
		return elementColors[Metal]
	default:
		return unknownColor
	}
}

// Segment is one bar of the elemental balance chart.
type Segment struct {
	Element Element `json:"element"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// Chart lays out balance in canonical element order. Missing elements render as 0%.
func Chart(balance map[string]float64) []Segment {
	segments := make([]Segment, 0, len(Elements))
	for _, el := range Elements {
		segments = append(segments, Segment{
			Element: el,
			Percent: lookup(balance, el),
			Color:   elementColors[el],
		})
	}
	return segments
}

func lookup(balance map[string]float64, el Element) float64 {
	if v, ok := balance[string(el)]; ok {
		return v
	}
	for k, v := range balance {
		if strings.EqualFold(k, string(el)) {
			return v
		}
	}
	return 0
}
