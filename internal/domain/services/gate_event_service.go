package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"visitpulse-http-service/internal/infrastructure/config"
)

// 闸机/前台显示屏事件主题
const (
	TopicGateEvents = "visitpulse/gate/events"
)

// 闸机事件类型
const (
	GateEventAppointmentApproved = "appointment_approved"
	GateEventVisitStarted        = "visit_started"
	GateEventVisitEnded          = "visit_ended"
)

// InterfaceGateEventService 定义闸机事件服务接口。
// 发布是尽力而为的：显示屏掉线不能阻塞任何生命周期操作。
type InterfaceGateEventService interface {
	Connect() error
	Disconnect()
	PublishVisitEvent(eventType string, payload map[string]interface{})
}

// GateEvent 推送给闸机和前台显示屏的事件
type GateEvent struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// GateEventService 通过MQTT向闸机和前台显示屏广播来访状态
type GateEventService struct {
	Config *config.Config
	Client mqtt.Client

	connectedMutex sync.RWMutex
	isConnected    bool
	publishMutex   sync.Mutex
}

// NewGateEventService 创建一个新的闸机事件服务
func NewGateEventService(cfg *config.Config) InterfaceGateEventService {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(30 * time.Second)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	if cfg.MQTTSSLEnabled {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	return &GateEventService{
		Config: cfg,
		Client: mqtt.NewClient(opts),
	}
}

// Connect 连接MQTT服务器，使用指数退避重试
func (s *GateEventService) Connect() error {
	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	s.connectedMutex.RLock()
	isConnected := s.isConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.isConnected = true
			s.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *GateEventService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// PublishVisitEvent 发布一条来访事件。失败只记日志，从不上抛。
func (s *GateEventService) PublishVisitEvent(eventType string, payload map[string]interface{}) {
	event := GateEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[MQTT] 事件序列化失败: %v", err)
		return
	}

	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	if !s.Client.IsConnected() {
		log.Printf("[MQTT] 未连接，丢弃事件 %s", eventType)
		return
	}

	token := s.Client.Publish(TopicGateEvents, byte(s.Config.MQTTQoS), s.Config.MQTTRetained, body)
	if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
		log.Printf("[MQTT] 发布事件 %s 失败: %v", eventType, token.Error())
	}
}
