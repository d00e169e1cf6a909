package extension

import (
	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// Option configures the Treasury Forge extension.
type Option func(*Extension)

// WithStore sets the store for the treasury engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTreasuryOption passes a treasury.Option through to the underlying engine.
func WithTreasuryOption(opt treasury.Option) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, opt)
	}
}

// WithPlugin registers a treasury plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, treasury.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for treasury routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithDefaultCurrency sets the ledger currency.
func WithDefaultCurrency(currency string) Option {
	return func(e *Extension) { e.config.DefaultCurrency = currency }
}

// WithComparisonTolerance sets the flat-trend band in major units.
func WithComparisonTolerance(tolerance string) Option {
	return func(e *Extension) { e.config.ComparisonTolerance = tolerance }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
