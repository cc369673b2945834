package classifier

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/model"
	"github.com/groupguard/modbot/internal/prompt"
	"github.com/groupguard/modbot/internal/resilience"
)

// GatewayConfig tunes retry and failover behavior.
type GatewayConfig struct {
	// Order lists backend names to try: the default first, failover
	// targets after it.
	Order []string

	// MaxAttempts is the per-backend retry ceiling for transient errors.
	MaxAttempts int

	// AttemptTimeout bounds a single completion call; OverallTimeout is
	// the cumulative deadline across all attempts and backends.
	AttemptTimeout time.Duration
	OverallTimeout time.Duration
}

// Gateway produces exactly one verdict or one explicit error per request.
// Transient failures retry with backoff; an exhausted or unparsable backend
// fails over to the next one in order.
type Gateway struct {
	backends map[string]Backend
	cfg      GatewayConfig
}

// NewGateway wires backends into a gateway. Backends named in cfg.Order
// but not registered are skipped with a warning at call time.
func NewGateway(cfg GatewayConfig, backends ...Backend) *Gateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 20 * time.Second
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = 90 * time.Second
	}

	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	if len(cfg.Order) == 0 {
		for _, b := range backends {
			cfg.Order = append(cfg.Order, b.Name())
		}
	}
	return &Gateway{backends: m, cfg: cfg}
}

// Classify scores one request. The error path is explicit: the caller
// treats it as "unscored" and must not enforce anything on the message.
func (g *Gateway) Classify(ctx context.Context, req prompt.Request) (model.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.OverallTimeout)
	defer cancel()

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = g.cfg.MaxAttempts

	var lastErr error
	for _, name := range g.cfg.Order {
		backend, ok := g.backends[name]
		if !ok {
			zap.L().Warn("scoring backend not registered", zap.String("backend", name))
			continue
		}

		retryCfg.OnRetry = resilience.RetryLogger(name, "classify")
		verdict, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (model.Verdict, error) {
			actx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
			defer cancel()

			raw, err := backend.Complete(actx, req)
			if err != nil {
				return model.Verdict{}, err
			}
			// Parse failures are semantic, never transient: DoVal returns
			// them without retrying, and the loop fails over instead.
			return ParseVerdict(raw)
		})
		if err == nil {
			verdict.Backend = name
			zap.L().Info("message scored",
				zap.String("backend", name),
				zap.Int("score", verdict.Score),
				zap.Int("confidence", verdict.Confidence),
			)
			return verdict, nil
		}

		lastErr = err
		zap.L().Warn("scoring backend exhausted, failing over",
			zap.String("backend", name),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = eris.New("classifier: no backends available")
	}
	return model.Verdict{}, eris.Wrap(lastErr, "classifier: all backends failed")
}
