package identity

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/TrustRelay/pkg/domain"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/shard"
	"github.com/sirupsen/logrus"
)

// Registry maps senders to anonymous handles and back.
//
// Both directions are only written while holding the sender's shard lock,
// so they stay mutual inverses. Handles come from a counter that never goes
// backwards: a handle released by Forget is never issued again.
type Registry struct {
	logger  *logrus.Logger
	reverse *shard.Map[relay.Handle]
	forward sync.Map // relay.Handle -> relay.SenderKey
	last    atomic.Uint64
	live    atomic.Int64
}

func NewRegistry(logger *logrus.Logger, shards int) *Registry {
	return &Registry{
		logger:  logger,
		reverse: shard.New[relay.Handle](shards),
	}
}

// ResolveOrCreate returns the sender's handle, issuing the next one on first contact.
func (r *Registry) ResolveOrCreate(sender relay.SenderKey) relay.Handle {
	var (
		handle  relay.Handle
		created bool
	)
	r.reverse.Update(sender, func(current relay.Handle, ok bool) (relay.Handle, bool) {
		if ok {
			handle = current
			return current, true
		}
		handle = relay.Handle(r.last.Add(1))
		created = true
		r.forward.Store(handle, sender)
		return handle, true
	})

	if created {
		r.live.Add(1)
		r.logger.WithField("handle", handle.String()).Info("issued anonymous handle")
	}
	return handle
}

func (r *Registry) LookupSender(handle relay.Handle) (relay.SenderKey, error) {
	v, ok := r.forward.Load(handle)
	if !ok {
		return 0, fmt.Errorf("lookup %s: %w", handle, domain.ErrUnknownHandle)
	}
	sender, ok := v.(relay.SenderKey)
	if !ok {
		return 0, fmt.Errorf("lookup %s: unexpected entry type %T", handle, v)
	}
	return sender, nil
}

// Forget removes both directions of the sender's mapping.
func (r *Registry) Forget(sender relay.SenderKey) bool {
	var (
		handle  relay.Handle
		removed bool
	)
	r.reverse.Update(sender, func(current relay.Handle, ok bool) (relay.Handle, bool) {
		if ok {
			handle = current
			removed = true
			r.forward.Delete(current)
		}
		return current, false
	})

	if removed {
		r.live.Add(-1)
		r.logger.WithField("handle", handle.String()).Info("forgot anonymous handle")
	}
	return removed
}

// Len returns the number of live mappings.
func (r *Registry) Len() int {
	return int(r.live.Load())
}

// LastIssued returns the most recently issued handle, zero if none.
func (r *Registry) LastIssued() relay.Handle {
	return relay.Handle(r.last.Load())
}
