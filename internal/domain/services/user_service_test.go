package services

import (
	"errors"
	"testing"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/pkg/utils"
)

func TestRegisterVisitor(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.Users.RegisterVisitor(&models.User{
		FirstName: "San",
		LastName:  "Zhang",
		Email:     "visitor@example.com",
		Password:  "secret123",
		Role:      models.RoleAdmin, // 注册时传入的角色应当被强制覆盖
	})
	if err != nil {
		t.Fatalf("RegisterVisitor failed: %v", err)
	}

	if user.Role != models.RoleVisitor {
		t.Errorf("self-registration must force visitor role, got %s", user.Role)
	}

	// 密码必须以哈希形式落库
	var stored models.User
	if err := env.DB.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Password == "secret123" {
		t.Errorf("password must not be stored in plaintext")
	}
	if !utils.CheckPasswordHash("secret123", stored.Password) {
		t.Errorf("stored hash must verify against the original password")
	}

	// 访客档案随注册建出
	var visitor models.Visitor
	if err := env.DB.Where("user_id = ?", user.ID).First(&visitor).Error; err != nil {
		t.Errorf("visitor profile was not created: %v", err)
	}
}

func TestRegisterVisitor_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", models.RoleVisitor)

	_, err := env.Users.RegisterVisitor(&models.User{
		FirstName: "Another",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "secret123",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUser_RoleEscalation(t *testing.T) {
	env := newTestEnv(t)

	// 秘书不能建秘书账户
	_, err := env.Users.CreateUser(&models.User{
		FirstName: "New",
		LastName:  "Secretary",
		Email:     "s2@example.com",
		Password:  "secret123",
		Role:      models.RoleSecretary,
	}, models.RoleSecretary)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// 管理员可以
	user, err := env.Users.CreateUser(&models.User{
		FirstName: "New",
		LastName:  "Secretary",
		Email:     "s2@example.com",
		Password:  "secret123",
		Role:      models.RoleSecretary,
	}, models.RoleAdmin)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if user.Role != models.RoleSecretary {
		t.Errorf("expected secretary role, got %s", user.Role)
	}
}

func TestVisitorProfileUpsertIdempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "visitor@example.com", models.RoleVisitor)

	first, err := env.Visitors.FindOrCreateByUserID(nil, user.ID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := env.Visitors.FindOrCreateByUserID(nil, user.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same profile, got %d and %d", first.ID, second.ID)
	}

	var count int64
	env.DB.Model(&models.Visitor{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 profile row, got %d", count)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createVisitorWithProfile(t, "visitor@example.com")

	visitor, err := env.Visitors.UpdateProfile(user.ID, map[string]interface{}{
		"company":      "Acme",
		"plate_number": "京A12345",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if visitor.Company != "Acme" || visitor.PlateNumber != "京A12345" {
		t.Errorf("profile not updated: %+v", visitor)
	}
}
