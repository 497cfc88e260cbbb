package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// InterfaceUserService 定义用户服务接口（身份目录）
type InterfaceUserService interface {
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	CreateUser(user *models.User, creatorRole models.Role) (*models.User, error)
	RegisterVisitor(user *models.User) (*models.User, error)
	GetAllUsers(page int, pageSize int) ([]models.User, int64, error)
	CountUsers() (int64, error)
}

// UserService 提供用户账户相关的服务
type UserService struct {
	DB             *gorm.DB
	Config         *config.Config
	visitorService InterfaceVisitorService
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config, visitorService InterfaceVisitorService) InterfaceUserService {
	return &UserService{
		DB:             db,
		Config:         cfg,
		visitorService: visitorService,
	}
}

// FindByEmail 根据邮箱查找用户
func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 用户 %s", ErrNotFound, email)
		}
		return nil, err
	}
	return &user, nil
}

// FindByID 根据ID查找用户
func (s *UserService) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 用户 %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser 创建新用户。非访客角色的账户只能由管理员创建。
func (s *UserService) CreateUser(user *models.User, creatorRole models.Role) (*models.User, error) {
	if user.Role != models.RoleVisitor && creatorRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: 只有管理员可以创建非访客账户", ErrForbidden)
	}

	if strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("%w: 邮箱不能为空", ErrValidation)
	}

	// 验证邮箱唯一性
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: 邮箱 %s 已被使用", ErrConflict, user.Email)
	}

	if err := s.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterVisitor 访客自助注册，创建账户并同步建立访客档案
func (s *UserService) RegisterVisitor(user *models.User) (*models.User, error) {
	// 强制为访客角色
	user.Role = models.RoleVisitor

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: 邮箱 %s 已被使用", ErrConflict, user.Email)
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		// 创建关联的访客档案
		_, err := s.visitorService.FindOrCreateByUserID(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetAllUsers 分页获取所有用户
func (s *UserService) GetAllUsers(page int, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	if err := s.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.DB.Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountUsers 统计用户总数
func (s *UserService) CountUsers() (int64, error) {
	var total int64
	err := s.DB.Model(&models.User{}).Count(&total).Error
	return total, err
}
