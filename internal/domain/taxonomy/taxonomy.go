// Package taxonomy is the static attribute dictionary for spot attributes.
// Lookups never fail: unknown keys degrade to a fallback label/icon and
// unknown categories yield empty key lists.
package taxonomy

// Category names accepted by the lookup functions.
const (
	CategoryAccess     = "access"
	CategoryFeatures   = "features"
	CategoryFacilities = "facilities"
	CategoryGoodFor    = "goodFor"
)

// FallbackIcon is returned for keys without a registered icon.
const FallbackIcon = "info"

// Entry is one key of a category with its display metadata.
type Entry struct {
	Key         string
	Label       string
	Icon        string
	Description string
}

var categories = map[string][]Entry{
	CategoryAccess: {
		{Key: "public", Label: "Public", Icon: "lock-open", Description: "Freely accessible at any time."},
		{Key: "restricted", Label: "Restricted", Icon: "lock-clock", Description: "Limited opening hours or permission required."},
		{Key: "paid", Label: "Paid", Icon: "payments", Description: "Entry fee or membership required."},
	},
	CategoryFeatures: {
		{Key: "walls_low", Label: "Low walls", Icon: "wall-low", Description: "Walls up to chest height."},
		{Key: "walls_high", Label: "High walls", Icon: "wall-high", Description: "Walls above head height."},
		{Key: "bars_low", Label: "Low bars", Icon: "bar-low", Description: "Rails and bars up to hip height."},
		{Key: "bars_high", Label: "High bars", Icon: "bar-high", Description: "Overhead bars and scaffolding."},
		{Key: "stairs", Label: "Stairs", Icon: "stairs", Description: "Stair sets and step gaps."},
		{Key: "ledges", Label: "Ledges", Icon: "ledge", Description: "Precision ledges and copings."},
		{Key: "natural", Label: "Natural terrain", Icon: "forest", Description: "Rocks, trees and other natural obstacles."},
		{Key: "indoor", Label: "Indoor", Icon: "home", Description: "Covered or indoor training area."},
	},
	CategoryFacilities: {
		{Key: "lighting", Label: "Lighting", Icon: "lightbulb", Description: "Lit after dark."},
		{Key: "parking", Label: "Parking", Icon: "local-parking", Description: "Parking nearby."},
		{Key: "toilets", Label: "Toilets", Icon: "wc", Description: "Public toilets nearby."},
		{Key: "water", Label: "Drinking water", Icon: "water-drop", Description: "Drinking water available."},
		{Key: "shelter", Label: "Shelter", Icon: "umbrella", Description: "Usable in rain."},
	},
	CategoryGoodFor: {
		{Key: "vaults", Label: "Vaults", Icon: "vault", Description: "Vault boxes, rails and walls at vaulting height."},
		{Key: "precision", Label: "Precision jumps", Icon: "precision", Description: "Gaps and ledges for precision work."},
		{Key: "balance", Label: "Balance", Icon: "balance", Description: "Rails and thin surfaces for balance practice."},
		{Key: "climbing", Label: "Climb-ups", Icon: "climbing", Description: "Walls suited for climb-ups and cat leaps."},
		{Key: "flow", Label: "Flow lines", Icon: "route", Description: "Obstacle density that supports continuous runs."},
		{Key: "conditioning", Label: "Conditioning", Icon: "fitness", Description: "Open space and bars for strength work."},
	},
}

// Label returns the display label for a key, falling back to the raw key.
func Label(category, key string) string {
	if e, ok := find(category, key); ok {
		return e.Label
	}
	return key
}

// Description returns the description for a key, falling back to "".
func Description(category, key string) string {
	if e, ok := find(category, key); ok {
		return e.Description
	}
	return ""
}

// Icon returns the icon identifier for a key, falling back to FallbackIcon.
func Icon(category, key string) string {
	if e, ok := find(category, key); ok {
		return e.Icon
	}
	return FallbackIcon
}

// Keys returns the ordered keys of a category, empty for unknown categories.
func Keys(category string) []string {
	entries := categories[category]
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns the full ordered entry list of a category.
func Entries(category string) []Entry {
	entries := categories[category]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Categories returns the known category names in a fixed order.
func Categories() []string {
	return []string{CategoryAccess, CategoryFeatures, CategoryFacilities, CategoryGoodFor}
}

func find(category, key string) (Entry, bool) {
	for _, e := range categories[category] {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}
