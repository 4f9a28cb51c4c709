package activity

import (
	"context"
	"log"
	"sync"
	"time"

	"dreambid/internal/metrics"
	"dreambid/internal/models"

	"github.com/smallnest/chanx"
)

// Writer persists a single activity row
type Writer interface {
	Create(ctx context.Context, row *models.UserActivity) error
}

// LoggerOptions tunes the background writer
type LoggerOptions struct {
	BufferSize   int
	WriteTimeout time.Duration
}

// DefaultLoggerOptions returns default logger options
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		BufferSize:   100,
		WriteTimeout: 5 * time.Second,
	}
}

// Logger records activity without blocking the caller. Entries go onto an
// unbounded in-process queue and a single worker writes them. Write failures
// are logged and dropped.
type Logger struct {
	writer  Writer
	options LoggerOptions

	mu      sync.RWMutex
	queue   *chanx.UnboundedChan[Entry]
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewLogger creates a new logger. Call Start before logging.
func NewLogger(writer Writer, options LoggerOptions) *Logger {
	defaults := DefaultLoggerOptions()
	if options.BufferSize <= 0 {
		options.BufferSize = defaults.BufferSize
	}
	if options.WriteTimeout <= 0 {
		options.WriteTimeout = defaults.WriteTimeout
	}
	return &Logger{
		writer:  writer,
		options: options,
	}
}

// Start launches the background writer
func (l *Logger) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		log.Println("ActivityLogger: Already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.queue = chanx.NewUnboundedChan[Entry](ctx, l.options.BufferSize)
	l.cancel = cancel
	l.running = true

	l.wg.Add(1)
	go l.run(l.queue)

	log.Printf("ActivityLogger: Started (buffer: %d, write timeout: %s)", l.options.BufferSize, l.options.WriteTimeout)
}

// Stop closes the queue, writes everything already queued and waits for the
// worker to exit
func (l *Logger) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.queue.In)
	l.mu.Unlock()

	l.wg.Wait()
	l.cancel()
	metrics.SetActivityBacklog(0)
	log.Println("ActivityLogger: Stopped")
}

// Log schedules an entry for writing and returns immediately
func (l *Logger) Log(entry Entry) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.running {
		log.Printf("ActivityLogger: not running, dropped %q", entry.Action)
		return
	}
	l.queue.In <- entry
	metrics.SetActivityBacklog(l.queue.Len())
}

func (l *Logger) run(queue *chanx.UnboundedChan[Entry]) {
	defer l.wg.Done()

	for entry := range queue.Out {
		l.write(entry)
		metrics.SetActivityBacklog(queue.Len())
	}
}

func (l *Logger) write(entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordActivityWrite(false)
			log.Printf("ActivityLogger: panic while recording %q: %v", entry.Action, r)
		}
	}()

	row, err := entry.toModel()
	if err != nil {
		metrics.RecordActivityWrite(false)
		log.Printf("ActivityLogger: dropped entry: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.options.WriteTimeout)
	defer cancel()

	if err := l.writer.Create(ctx, row); err != nil {
		metrics.RecordActivityWrite(false)
		log.Printf("ActivityLogger: failed to record %q: %v", entry.Action, err)
		return
	}
	metrics.RecordActivityWrite(true)
}
