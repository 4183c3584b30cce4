package ratelimit

import (
	"context"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/domain"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/shard"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLimit         = 15
	DefaultInterval      = 10 * time.Second
	DefaultBlockDuration = 18000 * time.Second
	DefaultSweepInterval = time.Minute
)

type Config struct {
	Limit         int
	Interval      time.Duration
	BlockDuration time.Duration
}

type Opts struct {
	TimeProvider func() time.Time
	Shards       int
}

// Decision is the outcome of a single Admit call.
type Decision struct {
	Allowed bool
	// Tripped is set when this call started the suspension.
	Tripped bool
	Until   time.Time
	Count   int
}

// Err returns a rate limited error for rejected decisions and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.NewRateLimitedError(d.Until, d.Tripped)
}

type senderState struct {
	timestamps     []time.Time
	suspendedUntil time.Time
}

type Limiter struct {
	cfg          Config
	logger       *logrus.Logger
	state        *shard.Map[*senderState]
	timeProvider func() time.Time
}

func NewLimiter(cfg Config, logger *logrus.Logger, opts *Opts) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = DefaultBlockDuration
	}
	timeProvider := time.Now
	shards := shard.DefaultShards
	if opts != nil {
		if opts.TimeProvider != nil {
			timeProvider = opts.TimeProvider
		}
		if opts.Shards > 0 {
			shards = opts.Shards
		}
	}
	return &Limiter{
		cfg:          cfg,
		logger:       logger,
		state:        shard.New[*senderState](shards),
		timeProvider: timeProvider,
	}
}

// Admit records a message from sender and decides whether it may pass.
// Messages arriving while the sender is suspended are rejected without being
// counted against the window.
func (l *Limiter) Admit(sender relay.SenderKey) Decision {
	var decision Decision
	l.state.Update(sender, func(st *senderState, ok bool) (*senderState, bool) {
		now := l.timeProvider()
		if !ok {
			st = &senderState{}
		}

		if !st.suspendedUntil.IsZero() {
			if now.Before(st.suspendedUntil) {
				decision = Decision{Until: st.suspendedUntil, Count: len(st.timestamps)}
				return st, true
			}
			st.suspendedUntil = time.Time{}
			st.timestamps = st.timestamps[:0]
		}

		kept := st.timestamps[:0]
		for _, ts := range st.timestamps {
			if now.Sub(ts) <= l.cfg.Interval {
				kept = append(kept, ts)
			}
		}
		st.timestamps = append(kept, now)

		if len(st.timestamps) > l.cfg.Limit {
			st.suspendedUntil = now.Add(l.cfg.BlockDuration)
			decision = Decision{Tripped: true, Until: st.suspendedUntil, Count: len(st.timestamps)}
			return st, true
		}

		decision = Decision{Allowed: true, Count: len(st.timestamps)}
		return st, true
	})

	if decision.Tripped {
		l.logger.WithFields(logrus.Fields{
			"count": decision.Count,
			"until": decision.Until.Format(time.RFC3339),
		}).Warn("sender exceeded rate limit, suspending")
	}
	return decision
}

// Sweep drops senders whose window is empty and who are not suspended.
func (l *Limiter) Sweep() int {
	now := l.timeProvider()
	removed := l.state.Sweep(func(_ relay.SenderKey, st *senderState) bool {
		if now.Before(st.suspendedUntil) {
			return true
		}
		for _, ts := range st.timestamps {
			if now.Sub(ts) <= l.cfg.Interval {
				return true
			}
		}
		return false
	})
	if removed > 0 {
		l.logger.WithField("removed", removed).Debug("swept idle rate windows")
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

type Stats struct {
	Tracked   int `json:"tracked"`
	Suspended int `json:"suspended"`
}

func (l *Limiter) Stats() Stats {
	now := l.timeProvider()
	stats := Stats{}
	l.state.Range(func(_ relay.SenderKey, st *senderState) {
		stats.Tracked++
		if now.Before(st.suspendedUntil) {
			stats.Suspended++
		}
	})
	return stats
}
