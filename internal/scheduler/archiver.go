package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"visitpulse-http-service/internal/domain/services"
)

// Archiver 每日零点执行过期预约归档
type Archiver struct {
	appointments services.InterfaceAppointmentService
	running      int32
	cancel       context.CancelFunc
}

// NewArchiver 创建归档调度器
func NewArchiver(appointments services.InterfaceAppointmentService) *Archiver {
	return &Archiver{appointments: appointments}
}

// nextMidnight 距离下一个本地零点的时长
func nextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}

// Start 启动调度循环，对齐到本地零点后每24小时执行一次
func (a *Archiver) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go func() {
		timer := time.NewTimer(nextMidnight(time.Now()))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				a.RunOnce()
				timer.Reset(nextMidnight(time.Now()))
			}
		}
	}()

	log.Printf("[Archiver] 归档调度器已启动，%s 后首次执行", nextMidnight(time.Now()).Round(time.Second))
}

// Stop 停止调度循环
func (a *Archiver) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce 执行一次归档。上一轮还在执行时跳过本轮。
func (a *Archiver) RunOnce() {
	if !atomic.CompareAndSwapInt32(&a.running, 0, 1) {
		log.Printf("[Archiver] 上一轮归档尚未结束，跳过本轮")
		return
	}
	defer atomic.StoreInt32(&a.running, 0)

	archived, err := a.appointments.ArchiveExpired()
	if err != nil {
		log.Printf("[Archiver] 归档失败: %v", err)
		return
	}
	log.Printf("[Archiver] 归档完成，本轮归档 %d 条过期预约", archived)
}
