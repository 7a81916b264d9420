package tool

import "github.com/astrokit/crpipe/pkg/params"

// Built-in tool tables. Defaults and domains follow each tool's own CLI
// documentation; they deliberately differ between tools.

// LACosmic drives the L.A.Cosmic cosmic-ray remover CLI.
func LACosmic() *Tool {
	return &Tool{
		Name:   "lacosmic",
		Script: "lacosmic_cli.py",
		Style:  ArgStyleFlags,
		Flags: []FlagSpec{
			{Param: "sigclip", Flag: "--sigclip"},
			{Param: "sigfrac", Flag: "--sigfrac"},
			{Param: "objlim", Flag: "--objlim"},
			{Param: "gain", Flag: "--gain"},
			{Param: "readnoise", Flag: "--readnoise"},
			{Param: "satlevel", Flag: "--satlevel"},
			{Param: "niter", Flag: "--niter"},
			{Param: "sepmed", Flag: "--sepmed"},
			{Param: "cleantype", Flag: "--cleantype"},
			{Param: "fsmode", Flag: "--fsmode"},
			{Param: "psfmodel", Flag: "--psfmodel"},
			{Param: "psffwhm", Flag: "--psffwhm"},
			{Param: "psfsize", Flag: "--psfsize"},
			{Param: "psfbeta", Flag: "--psfbeta"},
			{Param: "save_mask", Flag: "--save-mask", Presence: true},
		},
		OutputSuffix: "_crr",
		MaskSuffix:   "_crm",
		MaskParam:    "save_mask",
		ExportFormat: "tif",
		Schema: params.NewSchema(
			params.Def{Name: "sigclip", Kind: params.KindReal, Default: 1.5, Min: params.Ptr(0), Max: params.Ptr(50)},
			params.Def{Name: "sigfrac", Kind: params.KindReal, Default: 0.3, Min: params.Ptr(0), Max: params.Ptr(1)},
			params.Def{Name: "objlim", Kind: params.KindReal, Default: 1.5, Min: params.Ptr(0), Max: params.Ptr(50)},
			params.Def{Name: "gain", Kind: params.KindReal, Default: 1.0, Min: params.Ptr(0.01), Max: params.Ptr(100)},
			params.Def{Name: "readnoise", Kind: params.KindReal, Default: 9.0, Min: params.Ptr(0), Max: params.Ptr(100)},
			params.Def{Name: "satlevel", Kind: params.KindReal, Default: 65535.0, Min: params.Ptr(1), Max: params.Ptr(1e6)},
			params.Def{Name: "niter", Kind: params.KindInteger, Default: int64(6), Min: params.Ptr(1), Max: params.Ptr(25)},
			params.Def{Name: "sepmed", Kind: params.KindBool, Default: true},
			params.Def{Name: "cleantype", Kind: params.KindString, Default: "meanmask",
				Choices: []string{"median", "medmask", "meanmask", "idw"}},
			params.Def{Name: "fsmode", Kind: params.KindString, Default: "median",
				Choices: []string{"median", "convolve"}},
			params.Def{Name: "psfmodel", Kind: params.KindString, Default: "gauss",
				Choices: []string{"gauss", "gaussx", "gaussy", "moffat"}},
			params.Def{Name: "psffwhm", Kind: params.KindReal, Default: 2.5, Min: params.Ptr(0.1), Max: params.Ptr(50)},
			params.Def{Name: "psfsize", Kind: params.KindInteger, Default: int64(7), Min: params.Ptr(3), Max: params.Ptr(25)},
			params.Def{Name: "psfbeta", Kind: params.KindReal, Default: 4.765, Min: params.Ptr(0.1), Max: params.Ptr(100)},
			params.Def{Name: "save_mask", Kind: params.KindBool, Default: false},
		),
	}
}

// deepcrPresetThreshold mirrors the tool's own preset table: a preset, when
// given, replaces the user threshold entirely.
var deepcrPresetThreshold = map[string]float64{
	"optimal":      0.1,
	"aggressive":   0.05,
	"conservative": 0.2,
	"acs_default":  0.5,
}

// DeepCR drives the deep-learning cosmic-ray remover CLI. Threshold is a
// positional argument and the output suffix embeds its value. The preset
// parameter is optional; when set it overrides the threshold, so the
// effective value is folded back into the set to keep the argv and the
// output naming in agreement with the tool.
func DeepCR() *Tool {
	return &Tool{
		Name:       "deepcr",
		Script:     "deepcr_cli.py",
		Style:      ArgStylePositional,
		Positional: []string{"threshold"},
		Flags: []FlagSpec{
			{Param: "preset", Flag: "--preset"},
			{Param: "save_mask", Flag: "--save-mask", Presence: true},
		},
		OutputSuffix: "_deepcr_th{threshold}_cleaned",
		MaskSuffix:   "_deepcr_th{threshold}_mask",
		MaskParam:    "save_mask",
		ExportFormat: "tif",
		Schema: params.NewSchema(
			params.Def{Name: "threshold", Kind: params.KindReal, Default: 0.1, Min: params.Ptr(0.05), Max: params.Ptr(0.5)},
			params.Def{Name: "preset", Kind: params.KindString, Default: "",
				Choices: []string{"", "optimal", "aggressive", "conservative", "acs_default"}},
			params.Def{Name: "save_mask", Kind: params.KindBool, Default: false},
		),
		Normalize: func(set *params.Set) {
			if th, ok := deepcrPresetThreshold[set.String("preset")]; ok {
				set.Set("threshold", th)
			}
		},
	}
}

// Cosmetic drives the hot/cold pixel cosmetic correction CLI.
func Cosmetic() *Tool {
	return &Tool{
		Name:   "cosmetic",
		Script: "cosmetic_cli.py",
		Style:  ArgStyleFlags,
		Flags: []FlagSpec{
			{Param: "hot_sigma", Flag: "--hot-sigma"},
			{Param: "cold_sigma", Flag: "--cold-sigma"},
			{Param: "amount", Flag: "--amount"},
			{Param: "save_mask", Flag: "--save-mask", Presence: true},
		},
		OutputSuffix: "_cc",
		MaskSuffix:   "_mask",
		MaskParam:    "save_mask",
		ExportFormat: "tif",
		Schema: params.NewSchema(
			params.Def{Name: "hot_sigma", Kind: params.KindReal, Default: 3.0, Min: params.Ptr(0.1), Max: params.Ptr(50)},
			params.Def{Name: "cold_sigma", Kind: params.KindReal, Default: 3.0, Min: params.Ptr(0.1), Max: params.Ptr(50)},
			params.Def{Name: "amount", Kind: params.KindReal, Default: 1.0, Min: params.Ptr(0), Max: params.Ptr(1)},
			params.Def{Name: "save_mask", Kind: params.KindBool, Default: false},
		),
	}
}
