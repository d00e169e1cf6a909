package extension

// Config holds the Treasury extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.treasury" or "treasury" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for treasury routes (default: "/treasury").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// DefaultCurrency is the ledger currency in ISO 4217 lowercase
	// (default: "eur"). Every movement and balance uses it.
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency" yaml:"default_currency"`

	// ComparisonTolerance is the band, in major units, within which the
	// multi-period trend counts as flat (default: "1").
	ComparisonTolerance string `json:"comparison_tolerance" mapstructure:"comparison_tolerance" yaml:"comparison_tolerance"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:            "/treasury",
		DefaultCurrency:     "eur",
		ComparisonTolerance: "1",
	}
}
