package palette

import "math/rand/v2"

// Colour is an RGB triple
type Colour struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Colours runs from red to purple, plus white and silver
var Colours = []Colour{
	{255, 192, 203}, // pink
	{220, 20, 60},   // crimson
	{255, 69, 0},    // orange red
	{255, 165, 0},   // orange
	{255, 255, 0},   // yellow
	{255, 215, 0},   // gold
	{240, 230, 130}, // khaki
	{124, 252, 0},   // lawn green
	{152, 251, 152}, // pale green
	{0, 206, 209},   // dark turquoise
	{102, 205, 170}, // medium aquamarine
	{176, 224, 230}, // powder blue
	{221, 160, 221}, // violet
	{216, 191, 216}, // thistle
	{255, 255, 255}, // white
	{255, 248, 220}, // cornsilk
	{220, 220, 220}, // gainsboro
	{192, 192, 192}, // silver
}

// Random picks a colour from the palette
func Random() Colour {
	return Colours[rand.IntN(len(Colours))]
}

// Contains reports whether c is one of the palette colours
func Contains(c Colour) bool {
	for _, p := range Colours {
		if p == c {
			return true
		}
	}
	return false
}
