package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"donation_backend/internal/email"
	"donation_backend/internal/logger"
	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/pkg/apperrors"
	"donation_backend/pkg/rabbitmq"

	"github.com/panjf2000/ants/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const workerName = "notification_fanout"

// ErrDispatcherStopped - очередь закрыта
var ErrDispatcherStopped = errors.New("notification dispatcher stopped")

// Recipient - адресат уведомления
type Recipient struct {
	UserID   string
	UserType models.UserType
}

// NotificationTask - одно событие для рассылки всем адресатам
type NotificationTask struct {
	Recipients   []Recipient
	NotifyAdmins bool
	Type         string
	Title        string
	Message      string
	EntityType   string
	EntityID     string
	Data         map[string]any
	Email        *email.Message
	RequestID    string
}

// NotificationStore - сохранение уведомлений (NotificationRepository)
type NotificationStore interface {
	Create(db *gorm.DB, notification *models.Notification) error
}

// AdminDirectory - список активных администраторов (UserRepository)
type AdminDirectory interface {
	FindActiveAdminIDs(db *gorm.DB) ([]string, error)
}

// Pusher - доставка в реальном времени (ws.WebSocketManager)
type Pusher interface {
	Deliver(userID string, userType models.UserType, event string, payload any) bool
}

type DispatcherDeps struct {
	Transactor repositories.Transactor
	Store      NotificationStore
	Admins     AdminDirectory
	Pusher     Pusher
	Publisher  rabbitmq.Publisher
	Mailer     email.Sender
}

// NotificationDispatcher - асинхронная рассылка уведомлений.
// Ошибки доставки логируются и никогда не возвращаются в операцию, породившую событие.
type NotificationDispatcher struct {
	deps  DispatcherDeps
	queue chan NotificationTask
	pool  *ants.Pool

	mu      sync.RWMutex
	stopped bool
	loop    sync.WaitGroup
	tasks   sync.WaitGroup
}

func NewNotificationDispatcher(deps DispatcherDeps, queueSize, workers int) (*NotificationDispatcher, error) {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &NotificationDispatcher{
		deps:  deps,
		queue: make(chan NotificationTask, queueSize),
		pool:  pool,
	}, nil
}

// Start запускает чтение очереди.
// Задачи получают ctx без отмены: сигнал остановки не должен обрывать дочистку очереди в Shutdown.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	ctx = logger.Detach(ctx)
	d.loop.Add(1)
	go func() {
		defer d.loop.Done()
		for task := range d.queue {
			task := task
			d.tasks.Add(1)
			err := d.pool.Submit(func() {
				defer d.tasks.Done()
				d.process(ctx, task)
			})
			if err != nil {
				d.tasks.Done()
				logger.WorkerLog(workerName, "submit", err, "type", task.Type)
			}
		}
	}()
	logger.Info("notification dispatcher started", "workers", d.pool.Cap(), "queue", cap(d.queue))
}

// Dispatch ставит задачу в очередь без блокировки.
// При переполнении задача отбрасывается с предупреждением.
func (d *NotificationDispatcher) Dispatch(task NotificationTask) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		logger.WorkerLog(workerName, "dispatch", ErrDispatcherStopped, "type", task.Type)
		return
	}

	select {
	case d.queue <- task:
	default:
		logger.Warn("notification queue is full, event dropped", "type", task.Type, "entity_id", task.EntityID)
	}
}

// Shutdown закрывает очередь и ждёт завершения задач
func (d *NotificationDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.loop.Wait()
		d.tasks.Wait()
		close(done)
	}()

	defer d.pool.Release()

	select {
	case <-done:
		logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *NotificationDispatcher) process(ctx context.Context, task NotificationTask) {
	ctx = logger.WithRequestID(ctx, task.RequestID)

	recipients := d.resolveRecipients(ctx, task)
	data := encodeData(task.Data)

	userIDs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		userIDs = append(userIDs, r.UserID)

		notification := &models.Notification{
			UserID:            r.UserID,
			UserType:          r.UserType,
			Type:              task.Type,
			Title:             task.Title,
			Message:           task.Message,
			RelatedEntityType: task.EntityType,
			Data:              data,
		}
		if task.EntityID != "" {
			entityID := task.EntityID
			notification.RelatedEntityID = &entityID
		}

		if d.deps.Store != nil {
			if err := d.deps.Store.Create(d.db(ctx), notification); err != nil {
				logger.WorkerLog(workerName, "persist", apperrors.ErrDependency(err, "notification_store"),
					"user_id", r.UserID, "type", task.Type)
			}
		}

		if d.deps.Pusher != nil {
			d.deps.Pusher.Deliver(r.UserID, r.UserType, task.Type, notification)
		}
	}

	if d.deps.Publisher != nil {
		event := rabbitmq.LifecycleEvent{
			Type:       task.Type,
			EntityType: task.EntityType,
			EntityID:   task.EntityID,
			UserIDs:    userIDs,
			Data:       task.Data,
		}
		publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := d.deps.Publisher.PublishLifecycleEvent(publishCtx, event)
		cancel()
		if err != nil {
			logger.WorkerLog(workerName, "publish", apperrors.ErrDependency(err, "rabbitmq"), "type", task.Type)
		}
	}

	if task.Email != nil && task.Email.To != "" && d.deps.Mailer != nil {
		if err := d.deps.Mailer.Send(task.Email.To, task.Email.Subject, task.Email.HTMLBody); err != nil {
			logger.WorkerLog(workerName, "email", apperrors.ErrDependency(err, "smtp"), "to", task.Email.To)
		}
	}

	logger.WorkerLog(workerName, "fanout", nil, "type", task.Type, "recipients", len(recipients))
}

func (d *NotificationDispatcher) db(ctx context.Context) *gorm.DB {
	if d.deps.Transactor == nil {
		return nil
	}
	return d.deps.Transactor.DB(ctx)
}

func (d *NotificationDispatcher) resolveRecipients(ctx context.Context, task NotificationTask) []Recipient {
	seen := make(map[string]struct{}, len(task.Recipients))
	out := make([]Recipient, 0, len(task.Recipients))
	add := func(r Recipient) {
		if r.UserID == "" {
			return
		}
		if _, ok := seen[r.UserID]; ok {
			return
		}
		seen[r.UserID] = struct{}{}
		out = append(out, r)
	}

	for _, r := range task.Recipients {
		add(r)
	}

	if task.NotifyAdmins && d.deps.Admins != nil {
		ids, err := d.deps.Admins.FindActiveAdminIDs(d.db(ctx))
		if err != nil {
			logger.WorkerLog(workerName, "resolve_admins", err, "type", task.Type)
		}
		for _, id := range ids {
			add(Recipient{UserID: id, UserType: models.UserTypeAdmin})
		}
	}
	return out
}

func encodeData(data map[string]any) datatypes.JSON {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		logger.WorkerLog(workerName, "encode", err)
		return nil
	}
	return datatypes.JSON(raw)
}
