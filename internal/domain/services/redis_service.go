package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// InterfaceRedisService 定义Redis缓存服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheAppointmentByCode(appointment *models.Appointment, expiration time.Duration) error
	GetAppointmentByCode(code string) (*models.Appointment, error)
	InvalidateAppointment(code string) error
}

// RedisService 处理Redis缓存操作
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService 创建一个新的Redis服务
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// 1 Set 写入带过期时间的键值对
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// 2 Get 按键读取并反序列化
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete 删除键
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// 4 CacheAppointmentByCode 按预约码缓存预约，供门岗核验走快路径
func (s *RedisService) CacheAppointmentByCode(appointment *models.Appointment, expiration time.Duration) error {
	return s.Set("appointment_code:"+appointment.Code, appointment, expiration)
}

// 5 GetAppointmentByCode 从缓存按预约码取预约
func (s *RedisService) GetAppointmentByCode(code string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.Get("appointment_code:"+code, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// 6 InvalidateAppointment 预约状态变化后作废缓存
func (s *RedisService) InvalidateAppointment(code string) error {
	return s.Delete("appointment_code:" + code)
}
