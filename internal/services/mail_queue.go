package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/pkg/logger"
)

const TaskTypeMail = "mail:send"

// MailMessage is one pending delivery. Invitations and assignee
// notifications both go through the queue; nothing in the request path ever
// waits on SMTP.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// MailQueue dispatches mail fire-and-forget. The async implementation uses
// Redis via asynq; the sync fallback delivers in a detached goroutine.
type MailQueue interface {
	Enqueue(msg *MailMessage) error
	IsAsync() bool
	Close() error
}

var (
	globalMailQueue MailQueue
	mailQueueOnce   sync.Once
)

// InitMailQueue initializes the global mail queue based on config.
func InitMailQueue(cfg *config.Config, mailer *Mailer) MailQueue {
	mailQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncMailQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[MailQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalMailQueue = NewSyncMailQueue(mailer)
			} else {
				logger.Infof("[MailQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalMailQueue = queue
			}
		} else {
			logger.Infof("[MailQueue] Sync queue initialized (Redis disabled)")
			globalMailQueue = NewSyncMailQueue(mailer)
		}
	})
	return globalMailQueue
}

// GetMailQueue returns the global mail queue instance.
func GetMailQueue() MailQueue {
	return globalMailQueue
}

// AsyncMailQueue implements MailQueue on top of asynq (Redis-based).
type AsyncMailQueue struct {
	client *asynq.Client
}

func NewAsyncMailQueue(cfg *config.RedisConfig) (*AsyncMailQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncMailQueue{client: client}, nil
}

func (q *AsyncMailQueue) Enqueue(msg *MailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeMail, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[MailQueue] Message enqueued: id=%s, to=%s", info.ID, msg.To)
	return nil
}

func (q *AsyncMailQueue) IsAsync() bool {
	return true
}

func (q *AsyncMailQueue) Close() error {
	return q.client.Close()
}

// SyncMailQueue implements MailQueue without Redis. Delivery happens in a
// goroutine so the request response is never delayed; failures are logged
// and dropped.
type SyncMailQueue struct {
	mailer *Mailer
}

func NewSyncMailQueue(mailer *Mailer) *SyncMailQueue {
	return &SyncMailQueue{mailer: mailer}
}

func (q *SyncMailQueue) Enqueue(msg *MailMessage) error {
	go func() {
		if err := q.mailer.Send(msg.To, msg.Subject, msg.Text, msg.HTML); err != nil {
			logger.Warnf("[MailQueue] Delivery failed: %v", err)
		}
	}()
	return nil
}

func (q *SyncMailQueue) IsAsync() bool {
	return false
}

func (q *SyncMailQueue) Close() error {
	return nil
}

// MailWorker processes queued mail when Redis is enabled.
type MailWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	mailer  *Mailer
	running bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewMailWorker(cfg *config.RedisConfig, mailer *Mailer) *MailWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[MailWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &MailWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		mailer: mailer,
	}
}

// Start begins processing queued mail.
func (w *MailWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeMail, w.handleMail)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[MailWorker] Starting...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[MailWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the worker down.
func (w *MailWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[MailWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
}

func (w *MailWorker) handleMail(ctx context.Context, t *asynq.Task) error {
	var msg MailMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		logger.Warnf("[MailWorker] Failed to unmarshal message: %v", err)
		return err
	}
	return w.mailer.Send(msg.To, msg.Subject, msg.Text, msg.HTML)
}
