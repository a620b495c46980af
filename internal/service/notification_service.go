package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/wechat"
	"github.com/schoolgate/pickup-api/pkg/config"
	"github.com/schoolgate/pickup-api/pkg/jobs"
)

type templateSender interface {
	SendTemplateMessage(ctx context.Context, openID, templateID string, data map[string]wechat.TemplateValue, mini *wechat.MiniProgramLink) error
}

type notificationJob struct {
	Event    models.PickupEventDetail
	Guardian models.Guardian
}

// NotificationService fans pickup events out to linked guardians as WeChat
// template messages. Each send is attempted once; a failed send is logged
// and dropped, never retried and never surfaced to the recording staff.
type NotificationService struct {
	sender  templateSender
	cfg     config.WeChatConfig
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the dispatcher and its worker queue.
func NewNotificationService(sender templateSender, wechatCfg config.WeChatConfig, notifyCfg config.NotificationsConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, cfg: wechatCfg, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("pickup-notifications", s.deliver, jobs.QueueConfig{
		Workers:        notifyCfg.Workers,
		BufferSize:     notifyCfg.BufferSize,
		AttemptTimeout: notifyCfg.AttemptTimeout,
		Logger:         logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues one send per guardian. Enqueue failures are logged and
// dropped; the pickup event is already committed.
func (s *NotificationService) Dispatch(event models.PickupEventDetail, guardians []models.Guardian) {
	for _, guardian := range guardians {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    "pickup_notification",
			Payload: notificationJob{Event: event, Guardian: guardian},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("pickup notification dropped",
				zap.String("event_id", event.ID),
				zap.String("guardian_id", guardian.ID),
				zap.Error(err))
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	event := payload.Event
	guardian := payload.Guardian

	data := map[string]wechat.TemplateValue{
		"first":    {Value: fmt.Sprintf("%s has been picked up", event.ChildName)},
		"keyword1": {Value: event.ChildName},
		"keyword2": {Value: event.OccurredAt.Local().Format("2006-01-02 15:04")},
		"keyword3": {Value: event.StaffName},
		"remark":   {Value: "Tap to view the pickup photo."},
	}

	var mini *wechat.MiniProgramLink
	if s.cfg.MiniProgramAppID != "" {
		mini = &wechat.MiniProgramLink{
			AppID:    s.cfg.MiniProgramAppID,
			PagePath: "pages/pickup-detail/index?id=" + event.ID,
		}
	}

	if err := s.sender.SendTemplateMessage(ctx, guardian.OpenID, s.cfg.TemplateID, data, mini); err != nil {
		s.metrics.RecordNotification(false)
		return fmt.Errorf("notify guardian %s: %w", guardian.ID, err)
	}
	s.metrics.RecordNotification(true)
	return nil
}
