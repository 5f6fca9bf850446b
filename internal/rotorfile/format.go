package rotorfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format names an on-disk encoding for rotor bundles.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ErrUnsupportedFormat is returned for format names this package cannot
// read or write.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCBOR}
}

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias
// for yaml.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("%w %q (want json, yaml or cbor)", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks a format from a file extension, falling back to def
// when the extension is not recognised.
func FormatFromPath(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("rotorfile: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("rotorfile: CBOR decoder initialization failed: " + err.Error())
	}
}
