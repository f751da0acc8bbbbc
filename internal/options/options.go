package options

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavishGent/datastore/internal/codec"
	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/resilience"
	"github.com/LavishGent/datastore/internal/types"
)

// New builds the option store selected by cfg.Options.Driver.
func New(ctx context.Context, cfg *config.Config, clock types.Clock, logger *slog.Logger) (types.OptionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	valueCodec := codec.NewMsgpack()

	switch cfg.Options.Driver {
	case config.OptionsMemory:
		return NewMemory(valueCodec, logger), nil
	case config.OptionsPostgres:
		policy := resilience.NewPolicy("postgres", cfg, clock, logger)
		return NewPostgres(ctx, cfg.Postgres, valueCodec, policy, logger)
	default:
		return nil, fmt.Errorf("unknown options driver %q", cfg.Options.Driver)
	}
}
