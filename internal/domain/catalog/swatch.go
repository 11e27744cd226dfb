package catalog

import "strings"

// NeutralSwatch is shown for colors without a palette entry
const NeutralSwatch = "#CCCCCC"

var swatches = map[string]string{
	"negro":       "#000000",
	"blanco":      "#FFFFFF",
	"gris":        "#9CA3AF",
	"beige":       "#D4C5B9",
	"azul marino": "#000080",
	"gris oscuro": "#828282",
	"rojo":        "#DC2626",
	"azul":        "#2563EB",
	"verde":       "#16A34A",
	"rosa":        "#F472B6",
	"camel":       "#C19A6B",
	"vino":        "#722F37",
}

// SwatchColor returns the display hex for a color value, falling back to
// NeutralSwatch for unmapped colors.
func SwatchColor(value string) string {
	if hex, ok := swatches[strings.ToLower(strings.TrimSpace(value))]; ok {
		return hex
	}
	return NeutralSwatch
}
