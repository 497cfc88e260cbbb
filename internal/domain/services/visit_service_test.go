package services

import (
	"errors"
	"testing"
	"time"

	"visitpulse-http-service/internal/domain/models"
)

// approvedAppointment 建好并审批一条预约，返回预约和关联的来访
func approvedAppointment(t *testing.T, env *testEnv, visitorUser *models.User, secretary *models.User) (*models.Appointment, *models.Visit) {
	t.Helper()

	appointment := env.createPendingAppointment(t, visitorUser, time.Now())
	if _, err := env.Appointments.Approve(appointment.ID, secretary); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var visit models.Visit
	if err := env.DB.Where("appointment_id = ?", appointment.ID).First(&visit).Error; err != nil {
		t.Fatalf("load visit: %v", err)
	}
	return appointment, &visit
}

func TestRecordArrival(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	appointment, _ := approvedAppointment(t, env, visitorUser, secretary)

	env.Notifications.Sent = nil
	env.GateEvents.Events = nil

	visit, err := env.Visits.RecordArrival(appointment.ID, agent)
	if err != nil {
		t.Fatalf("RecordArrival failed: %v", err)
	}

	if visit.Status != models.VisitStatusOngoing {
		t.Errorf("expected status ongoing, got %s", visit.Status)
	}
	if visit.ArrivedAt == nil {
		t.Errorf("arrival time must be stamped")
	}
	if visit.AgentID == nil || *visit.AgentID != agent.ID {
		t.Errorf("registering agent must be recorded")
	}

	if len(env.Notifications.Sent) != 1 {
		t.Errorf("expected arrival notification, got %d", len(env.Notifications.Sent))
	}
	if len(env.GateEvents.Events) != 1 || env.GateEvents.Events[0] != GateEventVisitStarted {
		t.Errorf("expected gate event %s, got %v", GateEventVisitStarted, env.GateEvents.Events)
	}
}

func TestRecordArrival_Repeated(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	appointment, _ := approvedAppointment(t, env, visitorUser, secretary)

	first, err := env.Visits.RecordArrival(appointment.ID, agent)
	if err != nil {
		t.Fatalf("first arrival: %v", err)
	}

	// 重复登记到达返回冲突，且不覆盖首次到达时间
	_, err = env.Visits.RecordArrival(appointment.ID, agent)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on repeated arrival, got %v", err)
	}

	var reloaded models.Visit
	if err := env.DB.First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ArrivedAt == nil || reloaded.Status != models.VisitStatusOngoing {
		t.Errorf("repeated arrival must not disturb the visit state")
	}
}

func TestRecordArrival_UnknownAppointment(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)

	_, err := env.Visits.RecordArrival(9999, agent)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordArrival_PendingAppointment(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	appointment := env.createPendingAppointment(t, visitorUser, time.Now())

	// 未审批的预约没有来访记录，到达登记应当报冲突
	_, err := env.Visits.RecordArrival(appointment.ID, agent)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for pending appointment, got %v", err)
	}
}

func TestRecordDeparture(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	appointment, _ := approvedAppointment(t, env, visitorUser, secretary)

	arrived, err := env.Visits.RecordArrival(appointment.ID, agent)
	if err != nil {
		t.Fatalf("arrival: %v", err)
	}

	env.GateEvents.Events = nil
	departed, err := env.Visits.RecordDeparture(arrived.ID, agent)
	if err != nil {
		t.Fatalf("RecordDeparture failed: %v", err)
	}

	if departed.Status != models.VisitStatusCompleted {
		t.Errorf("expected status completed, got %s", departed.Status)
	}
	if departed.DepartedAt == nil {
		t.Errorf("departure time must be stamped")
	}
	if len(env.GateEvents.Events) != 1 || env.GateEvents.Events[0] != GateEventVisitEnded {
		t.Errorf("expected gate event %s, got %v", GateEventVisitEnded, env.GateEvents.Events)
	}

	// 已结束的来访不能再登记离开
	if _, err := env.Visits.RecordDeparture(arrived.ID, agent); !errors.Is(err, ErrConflict) {
		t.Errorf("double departure: expected ErrConflict, got %v", err)
	}
}

func TestRecordDeparture_WithoutArrival(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)
	_, visit := approvedAppointment(t, env, visitorUser, secretary)

	// 没登记到达就登记离开是非法流转
	_, err := env.Visits.RecordDeparture(visit.ID, agent)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestListActiveAndHistory(t *testing.T) {
	env := newTestEnv(t)
	visitorUser := env.createUser(t, "visitor@example.com", models.RoleVisitor)
	secretary := env.createUser(t, "secretary@example.com", models.RoleSecretary)
	agent := env.createUser(t, "agent@example.com", models.RoleAgent)

	// 一条进行中
	first, _ := approvedAppointment(t, env, visitorUser, secretary)
	if _, err := env.Visits.RecordArrival(first.ID, agent); err != nil {
		t.Fatalf("arrival: %v", err)
	}

	// 一条已结束
	second, _ := approvedAppointment(t, env, visitorUser, secretary)
	arrived, err := env.Visits.RecordArrival(second.ID, agent)
	if err != nil {
		t.Fatalf("arrival: %v", err)
	}
	if _, err := env.Visits.RecordDeparture(arrived.ID, agent); err != nil {
		t.Fatalf("departure: %v", err)
	}

	// 一条待到访，审批后未登记到达
	approvedAppointment(t, env, visitorUser, secretary)

	active, err := env.Visits.ListActive()
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected 1 active visit, got %d", len(active))
	}

	// 历史列表返回全部来访，不按状态过滤
	history, err := env.Visits.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("expected all 3 visits in history, got %d", len(history))
	}
	seen := map[models.VisitStatus]int{}
	for _, v := range history {
		seen[v.Status]++
	}
	if seen[models.VisitStatusScheduled] != 1 || seen[models.VisitStatusOngoing] != 1 || seen[models.VisitStatusCompleted] != 1 {
		t.Errorf("expected one visit per status in history, got %v", seen)
	}

	byDate, err := env.Visits.ListByDate(time.Now())
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(byDate) != 3 {
		t.Errorf("expected 3 visits today, got %d", len(byDate))
	}
}
