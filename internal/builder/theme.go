package builder

// Theme presets are opaque named style bundles copied into the sheet
// unchanged. An unknown or empty name yields an empty bundle.

var themes = map[string]map[string]any{
	"default": {
		"map": map[string]any{
			"properties": map[string]any{"svg:fill": "#FFFFFF"},
		},
		"centralTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#1F2766", "fo:color": "#FFFFFF"},
		},
		"mainTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#EEEBEE"},
		},
	},
	"dark": {
		"map": map[string]any{
			"properties": map[string]any{"svg:fill": "#1E1E2E"},
		},
		"centralTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#44475A", "fo:color": "#F8F8F2"},
		},
		"mainTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#2B2B3B", "fo:color": "#F8F8F2"},
		},
	},
	"business": {
		"map": map[string]any{
			"properties": map[string]any{"svg:fill": "#F5F6F8"},
		},
		"centralTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#0B5394", "fo:color": "#FFFFFF"},
		},
		"mainTopic": map[string]any{
			"properties": map[string]any{"svg:fill": "#CFE2F3"},
		},
	},
}

// Theme resolves a preset name into its style bundle.
func Theme(name string) map[string]any {
	if bundle, ok := themes[name]; ok {
		return bundle
	}
	return map[string]any{}
}
