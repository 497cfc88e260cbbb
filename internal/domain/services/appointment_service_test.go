package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"visitpulse-http-service/internal/domain/models"
	"visitpulse-http-service/pkg/utils"
)

func TestCreatePlanned(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)

	appointment, err := env.Appointments.CreatePlanned(visitorUser, &AppointmentRequest{
		Date:      time.Now().AddDate(0, 0, 3),
		TimeOfDay: "14:30",
		Reason:    "business meeting",
		HostName:  "Wang",
		Phone:     "13812345678",
		IDNumber:  "110101199001011234",
	})
	if err != nil {
		t.Fatalf("CreatePlanned failed: %v", err)
	}

	if appointment.Status != models.AppointmentStatusPending {
		t.Errorf("expected status pending, got %s", appointment.Status)
	}
	if appointment.Kind != models.AppointmentKindPlanned {
		t.Errorf("expected kind planned, got %s", appointment.Kind)
	}
	if len(appointment.Code) != 8 {
		t.Errorf("expected 8-char code, got %q", appointment.Code)
	}

	// 档案应当被自动补建并带上证件号
	var visitor models.Visitor
	if err := env.DB.Where("user_id = ?", visitorUser.ID).First(&visitor).Error; err != nil {
		t.Fatalf("visitor profile was not created: %v", err)
	}
	if visitor.IDNumber != "110101199001011234" {
		t.Errorf("expected id_number patched, got %q", visitor.IDNumber)
	}

	// 账户电话应当被顺带更新
	var reloaded models.User
	if err := env.DB.First(&reloaded, visitorUser.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Phone != "13812345678" {
		t.Errorf("expected phone patched, got %q", reloaded.Phone)
	}
}

func TestCreatePlanned_NonVisitorForbidden(t *testing.T) {
	env := newTestEnv(t)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)

	_, err := env.Appointments.CreatePlanned(secretary, &AppointmentRequest{
		Date:      time.Now(),
		TimeOfDay: "10:00",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreatePlanned_MissingDate(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)

	_, err := env.Appointments.CreatePlanned(visitorUser, &AppointmentRequest{TimeOfDay: "10:00"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestApprove(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))

	approved, err := env.Appointments.Approve(appointment.ID, secretary)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.AppointmentStatusApproved {
		t.Errorf("expected status approved, got %s", approved.Status)
	}

	// 审批应当创建待到访的来访记录
	var visit models.Visit
	if err := env.DB.Where("appointment_id = ?", appointment.ID).First(&visit).Error; err != nil {
		t.Fatalf("visit was not created: %v", err)
	}
	if visit.Status != models.VisitStatusScheduled {
		t.Errorf("expected visit scheduled, got %s", visit.Status)
	}
	if visit.ArrivedAt != nil {
		t.Errorf("scheduled visit must not have arrival time")
	}

	// 访客应当收到带预约码的通知
	if len(env.Notifications.Sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(env.Notifications.Sent))
	}
	if !strings.Contains(env.Notifications.Sent[0].Message, appointment.Code) {
		t.Errorf("notification should carry the appointment code")
	}

	// 闸机事件应当被广播
	if len(env.GateEvents.Events) != 1 || env.GateEvents.Events[0] != GateEventAppointmentApproved {
		t.Errorf("expected gate event %s, got %v", GateEventAppointmentApproved, env.GateEvents.Events)
	}
}

func TestApprove_AlreadyApproved(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))

	if _, err := env.Appointments.Approve(appointment.ID, secretary); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err := env.Appointments.Approve(appointment.ID, secretary)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second approve, got %v", err)
	}

	// 来访记录不能被重复创建
	var count int64
	env.DB.Model(&models.Visit{}).Where("appointment_id = ?", appointment.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 visit, got %d", count)
	}
}

func TestApprove_RoleCheck(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	employee := env.createUser(t, "employee@example.com", models.RoleEmployee)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))

	if _, err := env.Appointments.Approve(appointment.ID, visitorUser); !errors.Is(err, ErrForbidden) {
		t.Errorf("visitor approve: expected ErrForbidden, got %v", err)
	}
	if _, err := env.Appointments.Approve(appointment.ID, employee); !errors.Is(err, ErrForbidden) {
		t.Errorf("employee approve: expected ErrForbidden, got %v", err)
	}
}

func TestReject_PendingOnly(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))

	rejected, err := env.Appointments.Reject(appointment.ID, secretary)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.AppointmentStatusRejected {
		t.Errorf("expected status rejected, got %s", rejected.Status)
	}

	// 已拒绝的预约不能再被审批或再次拒绝
	if _, err := env.Appointments.Approve(appointment.ID, secretary); !errors.Is(err, ErrConflict) {
		t.Errorf("approve after reject: expected ErrConflict, got %v", err)
	}
	if _, err := env.Appointments.Reject(appointment.ID, secretary); !errors.Is(err, ErrConflict) {
		t.Errorf("double reject: expected ErrConflict, got %v", err)
	}
}

func TestCreateDirect_NewVisitorByEmail(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)

	appointment, err := env.Appointments.CreateDirect(agent, &DirectAppointmentRequest{
		AppointmentRequest: AppointmentRequest{Reason: "walk-in"},
		Email:              "new.visitor@example.com",
		VisitorName:        "San Zhang",
	})
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}

	if appointment.Status != models.AppointmentStatusApproved {
		t.Errorf("direct appointment must skip pending, got %s", appointment.Status)
	}
	if appointment.Kind != models.AppointmentKindDirect {
		t.Errorf("expected kind direct, got %s", appointment.Kind)
	}

	// 账户应当被建出来，初始密码可用
	var user models.User
	if err := env.DB.Where("email = ?", "new.visitor@example.com").First(&user).Error; err != nil {
		t.Fatalf("visitor account was not created: %v", err)
	}
	if user.Role != models.RoleVisitor {
		t.Errorf("expected visitor role, got %s", user.Role)
	}
	if !utils.CheckPasswordHash(env.Config.DefaultVisitorPassword, user.Password) {
		t.Errorf("expected default password to be set and hashed")
	}

	// 来访立即开始并盖到达时间
	var visit models.Visit
	if err := env.DB.Where("appointment_id = ?", appointment.ID).First(&visit).Error; err != nil {
		t.Fatalf("visit was not created: %v", err)
	}
	if visit.Status != models.VisitStatusOngoing {
		t.Errorf("expected visit ongoing, got %s", visit.Status)
	}
	if visit.ArrivedAt == nil {
		t.Errorf("direct visit must have arrival time stamped")
	}
	if visit.AgentID == nil || *visit.AgentID != agent.ID {
		t.Errorf("visit should record the registering agent")
	}

	// 真实邮箱应当收到欢迎通知
	if len(env.Notifications.Sent) != 1 {
		t.Errorf("expected 1 notification, got %d", len(env.Notifications.Sent))
	}
}

func TestCreateDirect_WalkInPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)

	appointment, err := env.Appointments.CreateDirect(agent, &DirectAppointmentRequest{
		AppointmentRequest: AppointmentRequest{Reason: "walk-in"},
		VisitorName:        "Anonymous",
	})
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}

	var visitor models.Visitor
	if err := env.DB.Preload("User").First(&visitor, appointment.VisitorID).Error; err != nil {
		t.Fatalf("load visitor: %v", err)
	}
	if !utils.IsWalkInEmail(visitor.User.Email) {
		t.Errorf("expected placeholder email, got %q", visitor.User.Email)
	}

	// 占位邮箱不发通知
	if len(env.Notifications.Sent) != 0 {
		t.Errorf("placeholder accounts must not be notified, got %d", len(env.Notifications.Sent))
	}
}

func TestCreateDirect_ExistingVisitorByID(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	_, visitor := env.createVisitorWithProfile(t, "known@example.com")

	appointment, err := env.Appointments.CreateDirect(agent, &DirectAppointmentRequest{
		AppointmentRequest: AppointmentRequest{Reason: "walk-in"},
		VisitorID:          &visitor.ID,
	})
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}
	if appointment.VisitorID != visitor.ID {
		t.Errorf("expected appointment bound to visitor %d, got %d", visitor.ID, appointment.VisitorID)
	}
}

func TestCreateDirect_RoleCheck(t *testing.T) {
	env := newTestEnv(t)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)

	_, err := env.Appointments.CreateDirect(secretary, &DirectAppointmentRequest{
		AppointmentRequest: AppointmentRequest{Reason: "walk-in"},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdate_OwnershipAndState(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com", models.RoleVisitor)
	other := env.createUser(t, "other@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	appointment := env.createPendingAppointment(t, owner, time.Now().AddDate(0, 0, 1))

	// 别的访客不能改
	_, err := env.Appointments.Update(appointment.ID, other, &AppointmentRequest{Reason: "hijack"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	// 本人可以改，未传字段保持原值
	updated, err := env.Appointments.Update(appointment.ID, owner, &AppointmentRequest{Reason: "changed"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Reason != "changed" {
		t.Errorf("expected reason changed, got %q", updated.Reason)
	}
	if updated.TimeOfDay != "10:00" {
		t.Errorf("unset field must keep old value, got %q", updated.TimeOfDay)
	}

	// 审批后不能再改
	if _, err := env.Appointments.Approve(appointment.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := env.Appointments.Update(appointment.ID, owner, &AppointmentRequest{Reason: "late"}); !errors.Is(err, ErrConflict) {
		t.Errorf("update after approve: expected ErrConflict, got %v", err)
	}
}

func TestDelete_PendingOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)

	first := env.createPendingAppointment(t, owner, time.Now().AddDate(0, 0, 1))
	if err := env.Appointments.Delete(first.ID, owner); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := env.Appointments.GetByID(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	second := env.createPendingAppointment(t, owner, time.Now().AddDate(0, 0, 2))
	if _, err := env.Appointments.Approve(second.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := env.Appointments.Delete(second.ID, owner); !errors.Is(err, ErrConflict) {
		t.Errorf("delete approved: expected ErrConflict, got %v", err)
	}
}

func TestGetByCode(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))

	found, err := env.Appointments.GetByCode(appointment.Code)
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if found.ID != appointment.ID {
		t.Errorf("expected appointment %d, got %d", appointment.ID, found.ID)
	}

	if _, err := env.Appointments.GetByCode("nonexist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for bad code, got %v", err)
	}
}

func TestListForHostPartitions(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	host := env.createUser(t, "host@example.com", models.RoleEmployee)

	makeFor := func(date time.Time) *models.Appointment {
		appointment, err := env.Appointments.CreatePlanned(visitorUser, &AppointmentRequest{
			Date:       date,
			TimeOfDay:  "09:00",
			Reason:     "meet host",
			HostUserID: &host.ID,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := env.Appointments.Approve(appointment.ID, secretary); err != nil {
			t.Fatalf("approve: %v", err)
		}
		return appointment
	}

	makeFor(time.Now())                   // today
	makeFor(time.Now().AddDate(0, 0, 2))  // upcoming
	makeFor(time.Now().AddDate(0, 0, -2)) // history

	today, err := env.Appointments.ListForHostToday(host)
	if err != nil {
		t.Fatalf("ListForHostToday: %v", err)
	}
	if len(today) != 1 {
		t.Errorf("expected 1 today, got %d", len(today))
	}

	upcoming, err := env.Appointments.ListForHostUpcoming(host)
	if err != nil {
		t.Fatalf("ListForHostUpcoming: %v", err)
	}
	if len(upcoming) != 1 {
		t.Errorf("expected 1 upcoming, got %d", len(upcoming))
	}

	history, err := env.Appointments.ListForHostHistory(host)
	if err != nil {
		t.Fatalf("ListForHostHistory: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 history, got %d", len(history))
	}

	stats, err := env.Appointments.GetHostStatistics(host)
	if err != nil {
		t.Fatalf("GetHostStatistics: %v", err)
	}
	if stats.Total != 3 || stats.Approved != 3 || stats.Pending != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestArchiveExpired(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)

	// 过期的已批准预约：应当被归档
	expired := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, -3))
	if _, err := env.Appointments.Approve(expired.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// 未过期的已批准预约：保持不动
	future := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 3))
	if _, err := env.Appointments.Approve(future.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// 过期但待审批：归档只看已批准的
	stalePending := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, -3))

	archived, err := env.Appointments.ArchiveExpired()
	if err != nil {
		t.Fatalf("ArchiveExpired failed: %v", err)
	}
	if archived != 1 {
		t.Errorf("expected 1 archived, got %d", archived)
	}

	assertStatus := func(id uint, want models.AppointmentStatus) {
		var appointment models.Appointment
		if err := env.DB.First(&appointment, id).Error; err != nil {
			t.Fatalf("reload %d: %v", id, err)
		}
		if appointment.Status != want {
			t.Errorf("appointment %d: expected %s, got %s", id, want, appointment.Status)
		}
	}
	assertStatus(expired.ID, models.AppointmentStatusArchived)
	assertStatus(future.ID, models.AppointmentStatusApproved)
	assertStatus(stalePending.ID, models.AppointmentStatusPending)

	// 同一天再跑一次是空操作
	archived, err = env.Appointments.ArchiveExpired()
	if err != nil {
		t.Fatalf("second ArchiveExpired failed: %v", err)
	}
	if archived != 0 {
		t.Errorf("second run should archive nothing, got %d", archived)
	}
}

func TestStateChangesInvalidateCodeCache(t *testing.T) {
	env := newTestEnv(t)
	visitorUser, _ := env.createVisitorWithProfile(t, "visitor@example.com")
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)

	containsCode := func(code string) bool {
		for _, c := range env.Cache.Invalidated {
			if c == code {
				return true
			}
		}
		return false
	}

	// 拒绝后缓存里的预约码快照必须被作废，否则门岗继续放行
	rejected := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))
	if err := env.Cache.CacheAppointmentByCode(rejected, time.Minute); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, err := env.Appointments.Reject(rejected.ID, secretary); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !containsCode(rejected.Code) {
		t.Errorf("expected reject to invalidate code %s, invalidated: %v", rejected.Code, env.Cache.Invalidated)
	}
	if _, err := env.Cache.GetAppointmentByCode(rejected.Code); err == nil {
		t.Errorf("stale cached appointment still verifiable after reject")
	}

	// 审批、修改、删除同样作废缓存
	approved := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))
	if _, err := env.Appointments.Approve(approved.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !containsCode(approved.Code) {
		t.Errorf("expected approve to invalidate code %s", approved.Code)
	}

	updated := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))
	if _, err := env.Appointments.Update(updated.ID, visitorUser, &AppointmentRequest{Reason: "changed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !containsCode(updated.Code) {
		t.Errorf("expected update to invalidate code %s", updated.Code)
	}

	deleted := env.createPendingAppointment(t, visitorUser, time.Now().AddDate(0, 0, 1))
	if err := env.Appointments.Delete(deleted.ID, visitorUser); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !containsCode(deleted.Code) {
		t.Errorf("expected delete to invalidate code %s", deleted.Code)
	}
}
