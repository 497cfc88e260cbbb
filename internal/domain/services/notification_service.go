package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// InterfaceNotificationService 定义通知服务接口。
// Send 是尽力而为的：任何失败都在此处记录并吞掉，绝不影响触发它的业务操作。
type InterfaceNotificationService interface {
	Connect() error
	Disconnect()
	Send(user *models.User, message string, channel models.NotificationChannel, visitID *uint)
}

// notificationEnvelope 投递到消息队列的通知载荷
type notificationEnvelope struct {
	NotificationID uint   `json:"notification_id"`
	UserID         uint   `json:"user_id"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Channel        string `json:"channel"`
	Message        string `json:"message"`
	VisitID        *uint  `json:"visit_id,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// NotificationService 落库通知记录并把投递任务交给RabbitMQ。
// 队列不可用时退化为仅落库，投递由下游补偿。
type NotificationService struct {
	DB     *gorm.DB
	Config *config.Config

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewNotificationService 创建一个新的通知服务
func NewNotificationService(db *gorm.DB, cfg *config.Config) InterfaceNotificationService {
	return &NotificationService{
		DB:     db,
		Config: cfg,
	}
}

// Connect 连接RabbitMQ并声明topic交换机
func (s *NotificationService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		return nil
	}

	conn, err := amqp.Dial(s.Config.RabbitURL)
	if err != nil {
		return fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("打开RabbitMQ通道失败: %w", err)
	}
	if err := ch.ExchangeDeclare(s.Config.RabbitExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("声明交换机失败: %w", err)
	}

	s.conn = conn
	s.ch = ch
	log.Printf("[Notification] 已连接RabbitMQ, 交换机=%s", s.Config.RabbitExchange)
	return nil
}

// Disconnect 断开RabbitMQ连接
func (s *NotificationService) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Send 记录并投递一条通知。失败只记日志，从不上抛。
func (s *NotificationService) Send(user *models.User, message string, channel models.NotificationChannel, visitID *uint) {
	if user == nil {
		return
	}

	notification := models.Notification{
		UserID:  user.ID,
		VisitID: visitID,
		Channel: channel,
		Message: message,
		Status:  models.NotificationStatusSent,
		SentAt:  time.Now(),
	}

	if err := s.DB.Create(&notification).Error; err != nil {
		log.Printf("[Notification] 通知落库失败 (用户 %d): %v", user.ID, err)
		return
	}

	if err := s.publish(&notification, user); err != nil {
		log.Printf("[Notification] 通知投递失败 (用户 %d): %v", user.ID, err)
		// 投递失败只修正状态，不影响调用方
		s.DB.Model(&notification).Update("status", models.NotificationStatusFailed)
	}
}

// publish 将通知发布到topic交换机，routing key 形如 notification.email
func (s *NotificationService) publish(n *models.Notification, user *models.User) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("RabbitMQ未连接")
	}

	body, err := json.Marshal(notificationEnvelope{
		NotificationID: n.ID,
		UserID:         user.ID,
		Email:          user.Email,
		Phone:          user.Phone,
		Channel:        string(n.Channel),
		Message:        n.Message,
		VisitID:        n.VisitID,
		Timestamp:      time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := "notification." + string(n.Channel)
	return ch.PublishWithContext(ctx, s.Config.RabbitExchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
