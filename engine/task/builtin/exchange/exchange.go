package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/oetzilabs/wfa/engine/task"
	"github.com/oetzilabs/wfa/engine/task/builtin"
	"github.com/oetzilabs/wfa/pkg/config"
	"github.com/oetzilabs/wfa/pkg/logger"
)

const TaskName = "currency_exchange"

type Input struct {
	From  string      `json:"from"`
	To    []string    `json:"to"`
	Value json.Number `json:"value"`
	Date  string      `json:"date,omitempty"`
}

// Output maps each currency code to an amount. The source currency maps to
// the input value.
type Output map[string]json.Number

// Config wires the task to its rate endpoints. URL templates use the {date}
// and {from} placeholders.
type Config struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
	MaxRetries  uint64
	RetryDelay  time.Duration
	Currencies  []string
	// Client overrides the HTTP client built from Timeout.
	Client *resty.Client
}

// ConfigFrom maps the application configuration onto Config.
func ConfigFrom(cfg *config.ExchangeConfig) Config {
	currencies := slices.Clone(cfg.Currencies)
	if len(currencies) == 0 {
		currencies = DefaultCurrencies()
	}
	return Config{
		PrimaryURL:  cfg.PrimaryURL,
		FallbackURL: cfg.FallbackURL,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Currencies:  currencies,
	}
}

// New returns the currency_exchange task.
func New(cfg Config, opts ...task.Option) (*task.Task[Input, Output], error) {
	if cfg.PrimaryURL == "" {
		return nil, fmt.Errorf("%w: task %s needs a primary endpoint", task.ErrInvalidSpec, TaskName)
	}
	if len(cfg.Currencies) == 0 {
		return nil, fmt.Errorf("%w: task %s needs a currency table", task.ErrInvalidSpec, TaskName)
	}
	client := cfg.Client
	if client == nil {
		client = resty.New().SetTimeout(cfg.Timeout)
	}
	endpoints := []string{cfg.PrimaryURL}
	if cfg.FallbackURL != "" {
		endpoints = append(endpoints, cfg.FallbackURL)
	}
	source := &rateSource{
		client:     client,
		endpoints:  endpoints,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	return task.New(task.Spec[Input, Output]{
		Name:         TaskName,
		Description:  "Converts an amount into one or more currencies using published daily rates.",
		InputSchema:  inputSchema(slices.Clone(cfg.Currencies)),
		OutputSchema: outputSchema,
		ErrorSchema:  errorSchema,
		Fn:           source.convert,
	}, opts...)
}

func (s *rateSource) convert(ctx context.Context, in Input) (Output, error) {
	value, err := decimal.NewFromString(in.Value.String())
	if err != nil {
		return nil, builtin.InvalidArgument(fmt.Errorf("invalid value: %w", err), map[string]any{"value": in.Value})
	}
	body, err := s.fetch(ctx, in.Date, in.From)
	if err != nil {
		return nil, err
	}
	table := gjson.GetBytes(body, in.From)
	if !table.IsObject() {
		return nil, builtin.CurrencyNotFound(
			fmt.Errorf("source currency %s not found in rate table", in.From),
			map[string]any{"currency": in.From, "date": in.Date},
		)
	}
	out := Output{in.From: json.Number(value.String())}
	var missing []string
	for _, code := range in.To {
		rate := table.Get(code)
		if rate.Type != gjson.Number {
			missing = append(missing, code)
			continue
		}
		parsed, err := decimal.NewFromString(rate.Raw)
		if err != nil {
			return nil, builtin.Internal(fmt.Errorf("invalid rate for %s: %w", code, err), nil)
		}
		out[code] = json.Number(value.Mul(parsed).String())
	}
	if len(missing) > 0 {
		return nil, builtin.CurrencyNotFound(
			errors.New("target currencies not found in rate table"),
			map[string]any{"from": in.From, "missing": missing, "date": in.Date},
		)
	}
	logger.FromContext(ctx).Debug("Converted currency", "from", in.From, "targets", len(in.To), "date", in.Date)
	return out, nil
}
