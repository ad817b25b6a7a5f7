package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"
)

// ColorSchemeFunc returns warden's fang color scheme.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           c(charmtone.Pepper, charmtone.Salt),
		Title:          charmtone.Malibu,
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        charmtone.Guac,
		Command:        charmtone.Guac,
		DimmedArgument: c(charmtone.Squid, charmtone.Smoke),
		Comment:        c(charmtone.Squid, charmtone.Smoke),
		Flag:           charmtone.Zest,
		Argument:       c(charmtone.Pepper, charmtone.Salt),
		Description:    c(charmtone.Pepper, charmtone.Salt),
		FlagDefault:    c(charmtone.Squid, charmtone.Smoke),
		QuotedString:   c(charmtone.Pepper, charmtone.Salt),
		ErrorHeader: [2]color.Color{
			charmtone.Butter,
			charmtone.Cherry,
		},
	}
}
