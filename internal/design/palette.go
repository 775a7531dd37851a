// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package design

// ColorOption is one selectable color in the studio palette.
type ColorOption struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Palette is the curated option catalog the client renders and the
// designer flow resets to on redo.
type Palette struct {
	Materials []string      `json:"materials"`
	Colors    []ColorOption `json:"colors"`
	Finishes  []string      `json:"finishes"`
}

// DefaultPalette returns the studio's built-in CMF option catalog.
func DefaultPalette() Palette {
	return Palette{
		Materials: []string{
			"anodized aluminum",
			"brushed stainless steel",
			"matte polycarbonate",
			"soft-touch TPU",
			"vegetable-tanned leather",
			"recycled ocean plastic",
			"walnut wood",
			"frosted glass",
		},
		Colors: []ColorOption{
			{Name: "Graphite", Hex: "#2B2B2B"},
			{Name: "Arctic White", Hex: "#F4F6F8"},
			{Name: "Midnight Blue", Hex: "#14213D"},
			{Name: "Terracotta", Hex: "#C65D3B"},
			{Name: "Sage", Hex: "#9CAF88"},
			{Name: "Champagne Gold", Hex: "#D4B483"},
			{Name: "Coral", Hex: "#E76F51"},
			{Name: "Slate", Hex: "#6B7280"},
		},
		Finishes: []string{
			"matte",
			"satin",
			"high gloss",
			"sandblasted",
			"soft-touch",
			"hammered",
		},
	}
}

// DefaultPairs returns the selection the designer flow starts from and
// resets to when the user redoes a design.
func DefaultPairs() []MaterialColor {
	p := DefaultPalette()
	return []MaterialColor{
		{Material: p.Materials[0], ColorHex: p.Colors[0].Hex},
	}
}
