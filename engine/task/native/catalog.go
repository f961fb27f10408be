package native

import (
	"fmt"

	"github.com/oetzilabs/wfa/engine/schema"
	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/engine/task/builtin"
	"github.com/oetzilabs/wfa/engine/task/builtin/csvjson"
	"github.com/oetzilabs/wfa/engine/task/builtin/exchange"
	"github.com/oetzilabs/wfa/engine/task/builtin/hello"
	"github.com/oetzilabs/wfa/pkg/config"
)

// NewCatalog builds the catalog of builtin tasks configured from cfg. Options
// apply to every leaf task and take precedence over the validator derived
// from cfg.
func NewCatalog(cfg *config.Config, opts ...task.Option) (*builtin.Catalog, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	validator, err := schema.NewJSONValidator(cfg.Runtime.ValidatorCacheSize)
	if err != nil {
		return nil, err
	}
	opts = append([]task.Option{task.WithValidator(validator)}, opts...)
	catalog := builtin.NewCatalog()

	greeter, err := hello.New(opts...)
	if err != nil {
		return nil, err
	}
	toCSV, err := csvjson.NewJSONToCSV(cfg.Tasks.CSV.Delimiter, opts...)
	if err != nil {
		return nil, err
	}
	toJSON, err := csvjson.NewCSVToJSON(cfg.Tasks.CSV.Delimiter, opts...)
	if err != nil {
		return nil, err
	}
	roundTrip, err := csvjson.NewRoundTrip(toCSV, toJSON)
	if err != nil {
		return nil, err
	}
	converter, err := exchange.New(exchange.ConfigFrom(&cfg.Tasks.Exchange), opts...)
	if err != nil {
		return nil, err
	}

	for _, register := range []func() error{
		func() error { return builtin.Register(catalog, greeter) },
		func() error { return builtin.Register(catalog, toCSV) },
		func() error { return builtin.Register(catalog, toJSON) },
		func() error { return builtin.Register(catalog, roundTrip) },
		func() error { return builtin.Register(catalog, converter) },
	} {
		if err := register(); err != nil {
			return nil, fmt.Errorf("failed to register builtin task: %w", err)
		}
	}
	return catalog, nil
}
