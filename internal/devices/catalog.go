package devices

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// catalogDecoders lists single-byte fallback encodings attempted, in priority
// order, when the source is not valid UTF-8.
var catalogDecoders = []struct {
	name    string
	decoder *encoding.Decoder
}{
	{"windows-1252", charmap.Windows1252.NewDecoder()},
	{"iso-8859-1", charmap.ISO8859_1.NewDecoder()},
}

// LoadCatalog loads the device catalog CSV from path.
//
// On an unreadable source it returns an empty registry together with an
// error wrapping ErrCatalogLoad, so the caller can log a startup warning and
// keep running with "device not known" behavior.
//
// Rows without a model value and rows with fewer than two fields are skipped
// silently; a malformed row never fails the load.
func LoadCatalog(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewRegistry(nil), fmt.Errorf("%w: %s: %v", ErrCatalogLoad, path, err)
	}

	content, err := decodeCatalog(raw)
	if err != nil {
		return NewRegistry(nil), fmt.Errorf("%w: %s: %v", ErrCatalogLoad, path, err)
	}

	return NewRegistry(parseCatalog(content)), nil
}

// decodeCatalog decodes raw bytes as UTF-8 (with optional BOM), falling back
// through the single-byte encodings when the bytes are not valid UTF-8.
func decodeCatalog(raw []byte) (string, error) {
	trimmed := bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(trimmed) {
		return string(trimmed), nil
	}

	for _, d := range catalogDecoders {
		decoded, err := d.decoder.Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), nil
	}
	return "", fmt.Errorf("no usable text encoding")
}

// parseCatalog parses CSV content leniently: a header row followed by data
// rows. Whole-line outer quotes are stripped, fields are split on commas and
// individually trimmed of whitespace and quotes. The type column may be named
// either "type" or "device_type".
func parseCatalog(content string) []Device {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return nil
	}

	headers := splitRow(lines[0])
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.ToLower(h)] = i
	}

	field := func(parts []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(parts) {
				return parts[i]
			}
		}
		return ""
	}

	var records []Device
	for _, line := range lines[1:] {
		parts := splitRow(line)
		if len(parts) < 2 {
			continue
		}

		model := field(parts, "model")
		if model == "" {
			continue
		}

		brand := field(parts, "brand")
		deviceType := field(parts, "type", "device_type")
		records = append(records, Device{
			Brand:            brand,
			Model:            model,
			Type:             deviceType,
			Description:      field(parts, "description"),
			ManufacturerCode: field(parts, "manufacturer-code", "manufacturer_code"),
			FullName:         strings.TrimSpace(brand + " " + deviceType + " " + model),
		})
	}
	return records
}

// splitRow splits a CSV line on commas after stripping whole-line outer
// quotes, trimming each field of whitespace and stray quotes.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	if len(line) >= 2 && strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`) {
		line = line[1 : len(line)-1]
	}

	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return parts
}
