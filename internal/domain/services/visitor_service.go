package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/internal/infrastructure/config"
)

// InterfaceVisitorService 定义访客档案服务接口
type InterfaceVisitorService interface {
	FindOrCreateByUserID(tx *gorm.DB, userID uint) (*models.Visitor, error)
	GetByID(id uint) (*models.Visitor, error)
	GetProfile(userID uint) (*models.Visitor, error)
	UpdateProfile(userID uint, updates map[string]interface{}) (*models.Visitor, error)
	Search(query string) ([]models.Visitor, error)
}

// VisitorService 提供访客档案相关的服务
type VisitorService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewVisitorService 创建一个新的访客档案服务
func NewVisitorService(db *gorm.DB, cfg *config.Config) InterfaceVisitorService {
	return &VisitorService{
		DB:     db,
		Config: cfg,
	}
}

// FindOrCreateByUserID 按账户查找访客档案，缺失时自动补建。
// 通过 user_id 唯一索引 + ON CONFLICT DO NOTHING 保证并发下不会建出两条档案，
// 冲突时复用已存在的行，因此该操作是幂等的。
func (s *VisitorService) FindOrCreateByUserID(tx *gorm.DB, userID uint) (*models.Visitor, error) {
	if tx == nil {
		tx = s.DB
	}

	visitor := models.Visitor{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&visitor).Error; err != nil {
		return nil, err
	}

	// 无论是否新建，都按 user_id 取回权威行
	if err := tx.Where("user_id = ?", userID).First(&visitor).Error; err != nil {
		return nil, err
	}
	return &visitor, nil
}

// GetByID 根据ID获取访客档案
func (s *VisitorService) GetByID(id uint) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := s.DB.Preload("User").First(&visitor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 访客档案 %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &visitor, nil
}

// GetProfile 获取账户对应的访客档案，缺失时自动补建
func (s *VisitorService) GetProfile(userID uint) (*models.Visitor, error) {
	visitor, err := s.FindOrCreateByUserID(nil, userID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Preload("User").First(visitor, visitor.ID).Error; err != nil {
		return nil, err
	}
	return visitor, nil
}

// UpdateProfile 更新访客档案，只覆盖非空字段
func (s *VisitorService) UpdateProfile(userID uint, updates map[string]interface{}) (*models.Visitor, error) {
	visitor, err := s.FindOrCreateByUserID(nil, userID)
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.DB.Model(visitor).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetProfile(userID)
}

// Search 按姓名或邮箱模糊搜索访客档案
func (s *VisitorService) Search(query string) ([]models.Visitor, error) {
	var visitors []models.Visitor
	pattern := "%" + query + "%"
	err := s.DB.Preload("User").
		Joins("JOIN users ON users.id = visitors.user_id").
		Where("users.first_name LIKE ? OR users.last_name LIKE ? OR users.email LIKE ?", pattern, pattern, pattern).
		Find(&visitors).Error
	if err != nil {
		return nil, err
	}
	return visitors, nil
}
