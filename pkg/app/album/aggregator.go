package album

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustRelay/pkg/infra/shard"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 10 * time.Second
	// GroupSize is the largest media group the transport accepts.
	GroupSize = 10
)

type FlushHandler func(batch relay.Batch)

type pendingBatch struct {
	handle     relay.Handle
	items      []relay.PayloadItem
	caption    string
	timer      Timer
	generation uint64
}

func (b *pendingBatch) toBatch(sender relay.SenderKey) relay.Batch {
	return relay.Batch{
		Sender:  sender,
		Handle:  b.handle,
		Items:   b.items,
		Caption: b.caption,
	}
}

// Aggregator collects album items per sender and flushes each album once no
// new item has arrived for the debounce timeout.
type Aggregator struct {
	logger    *logrus.Logger
	scheduler Scheduler
	timeout   time.Duration
	pending   *shard.Map[*pendingBatch]
	seq       atomic.Uint64

	handlerMu sync.RWMutex
	onFlush   FlushHandler
}

func NewAggregator(logger *logrus.Logger, scheduler Scheduler, timeout time.Duration, shards int) *Aggregator {
	if scheduler == nil {
		scheduler = NewTimeScheduler()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		logger:    logger,
		scheduler: scheduler,
		timeout:   timeout,
		pending:   shard.New[*pendingBatch](shards),
	}
}

// OnFlush registers the handler that receives batches flushed by the timer.
func (a *Aggregator) OnFlush(handler FlushHandler) {
	a.handlerMu.Lock()
	defer a.handlerMu.Unlock()
	a.onFlush = handler
}

// Add appends item to the sender's album and restarts its debounce timer.
// A non-empty caption replaces the album caption.
func (a *Aggregator) Add(sender relay.SenderKey, handle relay.Handle, item relay.PayloadItem, caption string) {
	created := false
	a.pending.Update(sender, func(b *pendingBatch, ok bool) (*pendingBatch, bool) {
		if !ok {
			b = &pendingBatch{}
			created = true
		}
		if b.timer != nil {
			b.timer.Stop()
		}

		item.Caption = ""
		b.handle = handle
		b.items = append(b.items, item)
		if caption != "" {
			b.caption = caption
		}

		generation := a.seq.Add(1)
		b.generation = generation
		b.timer = a.scheduler.AfterFunc(a.timeout, func() {
			a.fire(sender, generation)
		})
		return b, true
	})

	if created {
		prometheus.PendingAlbums.Inc()
	}
	a.logger.WithFields(logrus.Fields{
		"handle": handle.String(),
		"type":   item.Type,
	}).Debug("album item buffered")
}

// fire flushes the album only when the timer that fired is still the
// current one; a timer replaced by a later Add is ignored.
func (a *Aggregator) fire(sender relay.SenderKey, generation uint64) {
	var (
		batch   relay.Batch
		flushed bool
	)
	a.pending.Update(sender, func(b *pendingBatch, ok bool) (*pendingBatch, bool) {
		if !ok || b.generation != generation {
			return b, ok
		}
		batch = b.toBatch(sender)
		flushed = true
		return nil, false
	})
	if !flushed {
		return
	}

	prometheus.PendingAlbums.Dec()
	a.dispatch(batch)
}

// Flush removes the sender's album and returns it, cancelling its timer.
func (a *Aggregator) Flush(sender relay.SenderKey) (relay.Batch, bool) {
	b, ok := a.pending.Delete(sender)
	if !ok {
		return relay.Batch{}, false
	}
	prometheus.PendingAlbums.Dec()
	if b.timer != nil {
		b.timer.Stop()
	}
	if len(b.items) == 0 {
		return relay.Batch{}, false
	}
	return b.toBatch(sender), true
}

// Drain flushes every pending album through the flush handler right away.
func (a *Aggregator) Drain() int {
	drained := 0
	for _, sender := range a.pending.Keys() {
		batch, ok := a.Flush(sender)
		if !ok {
			continue
		}
		a.dispatch(batch)
		drained++
	}
	if drained > 0 {
		a.logger.WithField("albums", drained).Info("drained pending albums")
	}
	return drained
}

func (a *Aggregator) Pending() int {
	return a.pending.Len()
}

func (a *Aggregator) dispatch(batch relay.Batch) {
	if len(batch.Items) == 0 {
		return
	}
	prometheus.AlbumFlushesTotal.Inc()
	prometheus.AlbumItems.Observe(float64(len(batch.Items)))

	a.handlerMu.RLock()
	handler := a.onFlush
	a.handlerMu.RUnlock()

	if handler == nil {
		a.logger.WithField("handle", batch.Handle.String()).Error("album flushed without a handler, dropping")
		return
	}
	handler(batch)
}

// Chunk splits the batch into groups of at most size items. The album caption
// is set on the first item of the first group only.
func Chunk(batch relay.Batch, size int) [][]relay.PayloadItem {
	if size <= 0 {
		size = GroupSize
	}
	if len(batch.Items) == 0 {
		return nil
	}

	groups := make([][]relay.PayloadItem, 0, (len(batch.Items)+size-1)/size)
	for start := 0; start < len(batch.Items); start += size {
		end := min(start+size, len(batch.Items))
		group := make([]relay.PayloadItem, end-start)
		copy(group, batch.Items[start:end])
		for i := range group {
			group[i].Caption = ""
		}
		groups = append(groups, group)
	}
	groups[0][0].Caption = batch.Caption
	return groups
}
