package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
	"github.com/sirupsen/logrus"
)

const defaultQueueSize = 256

type Worker interface {
	Start()
	// Enqueue schedules task on the worker that owns key. Tasks for the same
	// key run one at a time in enqueue order.
	Enqueue(key relay.SenderKey, task func()) bool
	Shutdown()
}

type worker struct {
	logger *logrus.Logger
	queues []chan func()
	wg     sync.WaitGroup
	closed atomic.Bool
	mu     sync.RWMutex
}

func NewWorker(logger *logrus.Logger, n, queueSize int) Worker {
	if n <= 0 {
		n = 1
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	w := &worker{
		logger: logger,
		queues: make([]chan func(), n),
	}
	for i := range w.queues {
		w.queues[i] = make(chan func(), queueSize)
	}
	return w
}

func (w *worker) Start() {
	w.logger.WithField("workers", len(w.queues)).Info("starting dispatch workers")
	for i, queue := range w.queues {
		w.wg.Add(1)
		go func(workerID int, tasks <-chan func()) {
			defer w.wg.Done()
			for task := range tasks {
				w.run(workerID, task)
			}
		}(i, queue)
	}
}

func (w *worker) run(workerID int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithFields(logrus.Fields{
				"worker": workerID,
				"panic":  r,
			}).Error("dispatch task panicked")
		}
	}()
	task()
}

func (w *worker) queueFor(key relay.SenderKey) chan func() {
	h := uint64(key) * 11400714819323198485
	return w.queues[h%uint64(len(w.queues))]
}

// Enqueue blocks while the owning queue is full so that updates are not
// dropped. It returns false once the worker has been shut down.
func (w *worker) Enqueue(key relay.SenderKey, task func()) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed.Load() {
		return false
	}
	w.queueFor(key) <- task
	return true
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (w *worker) Shutdown() {
	w.mu.Lock()
	if w.closed.Swap(true) {
		w.mu.Unlock()
		return
	}
	for _, queue := range w.queues {
		close(queue)
	}
	w.mu.Unlock()

	w.logger.Info("waiting for dispatch workers")
	w.wg.Wait()
	w.logger.Info("dispatch workers stopped")
}
