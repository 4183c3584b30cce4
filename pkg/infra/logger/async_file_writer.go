package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const flushInterval = 2 * time.Second

// AsyncFileWriter buffers log lines in memory and writes them from a single
// goroutine. Lines are dropped when the queue is full rather than blocking
// the caller.
type AsyncFileWriter struct {
	writer  *bufio.Writer
	file    *os.File
	logChan chan []byte
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	dropped uint64
	mu      sync.Mutex
}

func NewAsyncFileWriter(logFile string, bufferSize int) (*AsyncFileWriter, error) {
	safeLogFile := filepath.Clean(logFile)
	file, err := os.OpenFile(safeLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	aw := &AsyncFileWriter{
		writer:  bufio.NewWriterSize(file, bufferSize),
		file:    file,
		logChan: make(chan []byte, 1000),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go aw.processLogs()

	return aw, nil
}

func (aw *AsyncFileWriter) Write(p []byte) (n int, err error) {
	select {
	case <-aw.done:
		return 0, fmt.Errorf("log writer closed")
	default:
	}
	select {
	case aw.logChan <- append([]byte{}, p...):
	default:
		aw.mu.Lock()
		aw.dropped++
		aw.mu.Unlock()
	}
	return len(p), nil
}

// Dropped returns how many lines were discarded because the queue was full.
func (aw *AsyncFileWriter) Dropped() uint64 {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.dropped
}

func (aw *AsyncFileWriter) processLogs() {
	defer close(aw.stopped)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case logData := <-aw.logChan:
			if _, err := aw.writer.Write(logData); err != nil {
				fmt.Fprintln(os.Stderr, "error writing log data to file:", err)
			}

		case <-ticker.C:
			_ = aw.writer.Flush()

		case <-aw.done:
			for {
				select {
				case logData := <-aw.logChan:
					_, _ = aw.writer.Write(logData)
				default:
					_ = aw.writer.Flush()
					return
				}
			}
		}
	}
}

// Close drains queued lines, flushes them and closes the file.
func (aw *AsyncFileWriter) Close() {
	aw.once.Do(func() {
		close(aw.done)
		<-aw.stopped
		_ = aw.file.Close()
	})
}
