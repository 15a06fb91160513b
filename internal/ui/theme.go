package ui

import (
	"errors"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Theme holds the resolved color palette as hex strings.
type Theme struct {
	Foreground          string
	Background          string
	Accent              string
	SelectionForeground string
	SelectionBackground string
	Dim                 string
	Red                 string
	Green               string
	Yellow              string
	Blue                string
	Border              string
	BrightWhite         string
}

// T is the active theme. Call Apply after replacing it.
var T = DefaultTheme()

// themeFile matches theme.toml. Any key may be omitted.
type themeFile struct {
	Accent              string `toml:"accent"`
	Foreground          string `toml:"foreground"`
	Background          string `toml:"background"`
	SelectionForeground string `toml:"selection_foreground"`
	SelectionBackground string `toml:"selection_background"`
	Dim                 string `toml:"dim"`
	Red                 string `toml:"red"`
	Green               string `toml:"green"`
	Yellow              string `toml:"yellow"`
	Blue                string `toml:"blue"`
	Border              string `toml:"border"`
	BrightWhite         string `toml:"bright_white"`
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		Foreground:          "#e5e7eb",
		Background:          "#1a1b26",
		Accent:              "#8b5cf6",
		SelectionForeground: "#e5e7eb",
		SelectionBackground: "#8b5cf6",
		Dim:                 "#6b7280",
		Red:                 "#ef4444",
		Green:               "#22c55e",
		Yellow:              "#eab308",
		Blue:                "#3b82f6",
		Border:              "#374151",
		BrightWhite:         "#f9fafb",
	}
}

// LoadTheme reads path over the defaults. A missing file yields the defaults
// and no error.
func LoadTheme(path string) (Theme, error) {
	t := DefaultTheme()
	if path == "" {
		return t, nil
	}
	var f themeFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return t, err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Foreground, f.Foreground)
	set(&t.Background, f.Background)
	set(&t.Accent, f.Accent)
	set(&t.SelectionForeground, f.SelectionForeground)
	set(&t.SelectionBackground, f.SelectionBackground)
	set(&t.Dim, f.Dim)
	set(&t.Red, f.Red)
	set(&t.Green, f.Green)
	set(&t.Yellow, f.Yellow)
	set(&t.Blue, f.Blue)
	set(&t.Border, f.Border)
	set(&t.BrightWhite, f.BrightWhite)
	return t, nil
}
