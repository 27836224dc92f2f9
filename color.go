package main

import (
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mgmeyers/pdfannotate/pdfutils"
)

// hexColor is a "#rrggbb" flag value.
type hexColor struct {
	colorful.Color
}

func (c *hexColor) UnmarshalText(text []byte) error {
	clr, err := pdfutils.ParseColor(string(text))
	if err != nil {
		return err
	}

	c.Color = clr

	return nil
}

func (c hexColor) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}
