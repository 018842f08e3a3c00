package transcode

import (
	"regexp"
	"strconv"
	"strings"

	"subforge/internal/config"
)

// Position is the vertical placement of burned-in subtitles.
type Position string

const (
	PositionBottom Position = "bottom"
	PositionTop    Position = "top"
	PositionCenter Position = "center"
)

// ParsePosition maps a config or flag value to a Position. Unknown values
// fall back to bottom.
func ParsePosition(value string) Position {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "top":
		return PositionTop
	case "center", "centre", "middle":
		return PositionCenter
	default:
		return PositionBottom
	}
}

// StyleConfig describes burned-in subtitle appearance.
type StyleConfig struct {
	FontName         string
	FontSize         int
	PrimaryColor     string
	OutlineColor     string
	OutlineWidth     int
	Bold             bool
	Italic           bool
	Position         Position
	MarginVertical   int
	MarginHorizontal int
}

// StyleFromConfig converts the [style] config section.
func StyleFromConfig(cfg config.Style) StyleConfig {
	return StyleConfig{
		FontName:         cfg.FontName,
		FontSize:         cfg.FontSize,
		PrimaryColor:     cfg.PrimaryColor,
		OutlineColor:     cfg.OutlineColor,
		OutlineWidth:     cfg.OutlineWidth,
		Bold:             cfg.Bold,
		Italic:           cfg.Italic,
		Position:         ParsePosition(cfg.Position),
		MarginVertical:   cfg.MarginVertical,
		MarginHorizontal: cfg.MarginHorizontal,
	}
}

var hexColorPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// BGR converts an RRGGBB color (optionally prefixed with '#') to the ASS
// &HBBGGRR form. Invalid colors report false.
func BGR(rgb string) (string, bool) {
	rgb = strings.TrimPrefix(strings.TrimSpace(rgb), "#")
	if !hexColorPattern.MatchString(rgb) {
		return "", false
	}
	return "&H" + rgb[4:6] + rgb[2:4] + rgb[0:2], true
}

// Compile renders the style as a comma-separated force_style value. Key order
// is fixed; invalid colors are left out.
func (s StyleConfig) Compile() string {
	parts := make([]string, 0, 11)
	parts = append(parts,
		"FontName="+sanitizeStyleValue(s.FontName),
		"FontSize="+strconv.Itoa(s.FontSize),
	)
	if color, ok := BGR(s.PrimaryColor); ok {
		parts = append(parts, "PrimaryColour="+color)
	}
	if color, ok := BGR(s.OutlineColor); ok {
		parts = append(parts, "OutlineColour="+color)
	}
	parts = append(parts, "Outline="+strconv.Itoa(s.OutlineWidth))
	if s.Bold {
		parts = append(parts, "Bold=1")
	}
	if s.Italic {
		parts = append(parts, "Italic=1")
	}

	margin := "MarginV=" + strconv.Itoa(s.MarginVertical)
	switch ParsePosition(string(s.Position)) {
	case PositionTop:
		parts = append(parts, margin, "Alignment=8")
	case PositionCenter:
		parts = append(parts, "Alignment=5")
	default:
		parts = append(parts, margin, "Alignment=2")
	}

	horizontal := strconv.Itoa(s.MarginHorizontal)
	parts = append(parts, "MarginL="+horizontal, "MarginR="+horizontal)
	return strings.Join(parts, ",")
}

// sanitizeStyleValue drops characters that would end the force_style value.
func sanitizeStyleValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\'', ',', ':', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
}
