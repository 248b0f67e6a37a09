package factory

import (
	"fmt"
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"
)

// StrategyFactory builds one maintenance strategy from the configuration.
type StrategyFactory func(cfg *config.Config) (model.Strategy, error)

// registry holds the mapping of strategy names to their factories.
// Strategy packages register themselves in init().
var registry = make(map[string]StrategyFactory)

// RegisterStrategy registers a new maintenance strategy by name.
func RegisterStrategy(name string, factory StrategyFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy '%s' already registered", name))
	}
	registry[name] = factory
}

// NewStrategy creates the named strategy from the config.
func NewStrategy(name string, cfg *config.Config) (model.Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: '%s'", name)
	}
	return factory(cfg)
}

// NewStrategies creates every strategy enabled in the config.
func NewStrategies(cfg *config.Config) ([]model.Strategy, error) {
	strategies := make([]model.Strategy, 0, len(cfg.Engine.Strategies))
	for _, name := range cfg.Engine.Strategies {
		log.Printf("Creating maintenance strategy '%s'", name)
		s, err := NewStrategy(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("error creating strategy '%s': %w", name, err)
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}
