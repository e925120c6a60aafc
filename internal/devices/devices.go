// Package devices provides the device catalog and free-text device lookup.
//
// The catalog is loaded once from a CSV source at startup and never mutated.
// Lookup resolves user input to a catalog entry in three tiers: exact index
// match, substring match, then fuzzy match against device keys with a strict
// similarity threshold.
package devices

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCatalogLoad indicates the catalog source is missing or unreadable in all
// attempted encodings. Callers should log a warning and continue with the
// empty registry returned alongside this error.
var ErrCatalogLoad = errors.New("device catalog unreadable")

// Device is an immutable catalog entry.
type Device struct {
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Type             string `json:"device_type"`
	Description      string `json:"description"`
	ManufacturerCode string `json:"manufacturer_code"`
	FullName         string `json:"full_name"`
}

// Match is the result of a registry lookup.
type Match struct {
	Known bool `json:"is_known"`

	// Key is the lowercased model key in the catalog. Empty when unknown.
	Key string `json:"device_key,omitempty"`

	// Record is the matched catalog entry. Nil when unknown.
	Record *Device `json:"device_info,omitempty"`

	// Confidence is set only for fuzzy matches, formatted as a percentage
	// string ("73%"). Exact and substring matches carry no score.
	Confidence string `json:"match_confidence,omitempty"`

	// Input preserves the raw user input for diagnostics when unknown.
	Input string `json:"user_input,omitempty"`
}

// fuzzyThreshold is the minimum similarity ratio for a fuzzy match.
// Strictly greater-than: a ratio of exactly 0.6 does not match.
const fuzzyThreshold = 0.6

// Registry resolves free-text input against the loaded catalog.
//
// The substring tier iterates index keys in insertion order and returns the
// first hit, so catalog load order is the tie-break for ambiguous input.
// This is a deliberate, if arbitrary, policy carried over from the prior
// behavior of the system.
type Registry struct {
	devices    map[string]*Device // keyed by lowercased model
	order      []string           // catalog order of device keys
	index      map[string]string  // index key -> device key
	indexOrder []string           // insertion order of index keys
}

// NewRegistry builds a registry from catalog entries in load order.
// Entries without a model are skipped.
func NewRegistry(records []Device) *Registry {
	r := &Registry{
		devices: make(map[string]*Device, len(records)),
		index:   make(map[string]string, len(records)*4),
	}
	for i := range records {
		d := records[i]
		if d.Model == "" {
			continue
		}
		if d.FullName == "" {
			d.FullName = strings.TrimSpace(strings.Join([]string{d.Brand, d.Type, d.Model}, " "))
		}
		key := strings.ToLower(d.Model)
		if _, exists := r.devices[key]; !exists {
			r.order = append(r.order, key)
		}
		r.devices[key] = &d

		r.addIndexKey(strings.ToLower(d.Model), key)
		r.addIndexKey(strings.ToLower(d.FullName), key)
		r.addIndexKey(strings.ToLower(d.Brand+" "+d.Model), key)
		r.addIndexKey(strings.ToLower(d.Brand+" "+d.Type), key)
	}
	return r
}

func (r *Registry) addIndexKey(indexKey, deviceKey string) {
	indexKey = strings.TrimSpace(indexKey)
	if indexKey == "" {
		return
	}
	if _, exists := r.index[indexKey]; !exists {
		r.indexOrder = append(r.indexOrder, indexKey)
	}
	r.index[indexKey] = deviceKey
}

// Find resolves free-text input to a catalog entry.
//
// Tiers, in precedence order:
//  1. Exact match against the index (model, full name, brand+model,
//     brand+type), all lowercased.
//  2. Substring match: input contains an index key or vice versa; first hit
//     in index insertion order wins.
//  3. Fuzzy match against device keys with a similarity ratio strictly
//     above 0.6; the best-scoring key wins and the ratio is reported as a
//     percentage string.
//
// Empty or unmatched input returns Known=false with the raw input preserved.
func (r *Registry) Find(input string) Match {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if normalized != "" {
		if deviceKey, ok := r.index[normalized]; ok {
			return Match{Known: true, Key: deviceKey, Record: r.devices[deviceKey]}
		}

		for _, indexKey := range r.indexOrder {
			if strings.Contains(normalized, indexKey) || strings.Contains(indexKey, normalized) {
				deviceKey := r.index[indexKey]
				return Match{Known: true, Key: deviceKey, Record: r.devices[deviceKey]}
			}
		}

		bestScore := fuzzyThreshold
		bestKey := ""
		for _, deviceKey := range r.order {
			score := similarityRatio(normalized, deviceKey)
			if score > bestScore {
				bestScore = score
				bestKey = deviceKey
			}
		}
		if bestKey != "" {
			return Match{
				Known:      true,
				Key:        bestKey,
				Record:     r.devices[bestKey],
				Confidence: fmt.Sprintf("%.0f%%", bestScore*100),
			}
		}
	}

	return Match{Known: false, Input: input}
}

// DeviceList returns device full names in catalog order, for display when a
// lookup fails.
func (r *Registry) DeviceList() []string {
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.devices[key].FullName)
	}
	return names
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int {
	return len(r.order)
}
