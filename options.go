package inkframe

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/inkframe/inkframe/api"
)

// ExportOptions contains options for one export invocation, bindable to CLI
// flags.
type ExportOptions struct {
	Format    string
	Output    string
	Device    string
	Clipboard bool
	Title     string

	// Format-specific boolean flags (mutually exclusive)
	SVG         bool
	PNG         bool
	JPG         bool
	PDF         bool
	Transparent bool
}

// BindPFlags adds export flags to the provided pflag set (for cobra).
func BindPFlags(flags *pflag.FlagSet, options *ExportOptions) {
	flags.StringVar(&options.Format, "format", "raster", "Output format: vector, raster, raster-transparent, compressed-raster, compressed-raster-transparent, document, clipboard")
	flags.StringVar(&options.Output, "output", "", "Output directory (defaults to the configured output dir)")
	flags.StringVar(&options.Device, "device", string(api.DeviceStandard), "Device class: standard, compact")
	flags.BoolVar(&options.Clipboard, "clipboard", false, "Copy the artifact to the clipboard when the format supports it")
	flags.StringVar(&options.Title, "title", "", "Override the diagram title used for the filename")

	// Format-specific flags (mutually exclusive)
	flags.BoolVar(&options.SVG, "svg", false, "Export as vector SVG")
	flags.BoolVar(&options.PNG, "png", false, "Export as lossless raster PNG")
	flags.BoolVar(&options.JPG, "jpg", false, "Export as compressed raster JPEG")
	flags.BoolVar(&options.PDF, "pdf", false, "Export as print document PDF")
	flags.BoolVar(&options.Transparent, "transparent", false, "Omit the theme background (raster formats)")
}

// ResolveFormat resolves the output format from format-specific flags.
func (options *ExportOptions) ResolveFormat() (api.Format, error) {
	formatCount := 0
	selected := options.Format

	if options.SVG {
		formatCount++
		selected = string(api.FormatVector)
	}
	if options.PNG {
		formatCount++
		selected = string(api.FormatRaster)
	}
	if options.JPG {
		formatCount++
		selected = string(api.FormatCompressed)
	}
	if options.PDF {
		formatCount++
		selected = string(api.FormatDocument)
	}
	if formatCount > 1 {
		return "", fmt.Errorf("multiple format flags specified; please use only one format flag")
	}

	format, err := api.ParseFormat(selected)
	if err != nil {
		return "", err
	}
	if options.Transparent {
		switch format {
		case api.FormatRaster:
			format = api.FormatRasterTransparent
		case api.FormatCompressed:
			format = api.FormatCompressedTransparent
		case api.FormatRasterTransparent, api.FormatCompressedTransparent:
			// already transparent
		default:
			return "", fmt.Errorf("--transparent only applies to raster formats")
		}
	}
	return format, nil
}

// DeviceClass resolves the device-class token.
func (options *ExportOptions) DeviceClass() (api.DeviceClass, error) {
	switch options.Device {
	case "", string(api.DeviceStandard):
		return api.DeviceStandard, nil
	case string(api.DeviceCompact):
		return api.DeviceCompact, nil
	default:
		return "", fmt.Errorf("unknown device class: %s", options.Device)
	}
}
