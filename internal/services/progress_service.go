// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProgressUpdate 推送给订阅者的进度更新
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 进度百分比 (0-100)
	Message  string `json:"message"`  // 描述性消息
	Status   string `json:"status"`   // 状态：running, completed, failed
}

// ProgressTracker 跟踪单次阶段运行的进度
type ProgressTracker struct {
	TaskID      string
	Progress    int
	Message     string
	Status      string
	StartTime   time.Time
	UpdateTime  time.Time
	Subscribers map[chan ProgressUpdate]bool
	Done        chan struct{}
	mutex       sync.Mutex
}

// ProgressService 管理所有进度跟踪器
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

// NewProgressService 创建进度服务实例
func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// NewTaskID 生成新的任务标识
func NewTaskID() string {
	return uuid.NewString()
}

// CreateTracker 创建进度跟踪器，已存在时返回现有实例
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	tracker := &ProgressTracker{
		TaskID:      taskID,
		Progress:    0,
		Message:     "задача запускается...",
		Status:      "running",
		StartTime:   time.Now(),
		UpdateTime:  time.Now(),
		Subscribers: make(map[chan ProgressUpdate]bool),
		Done:        make(chan struct{}),
	}

	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker 获取进度跟踪器
func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// UpdateProgress 更新任务进度并通知订阅者
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if progress > t.Progress {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: t.Progress, Message: t.Message, Status: t.Status})
}

// Complete 标记任务完成
func (t *ProgressTracker) Complete(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Progress = 100
	if message != "" {
		t.Message = message
	} else {
		t.Message = "задача завершена"
	}
	t.Status = "completed"
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: 100, Message: t.Message, Status: "completed"})
	close(t.Done)
}

// Fail 标记任务失败
func (t *ProgressTracker) Fail(errorMsg string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Message = fmt.Sprintf("ошибка: %s", errorMsg)
	t.Status = "failed"
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: t.Progress, Message: t.Message, Status: "failed"})
	close(t.Done)
}

// 非阻塞通知所有订阅者，通道已满时跳过
func (t *ProgressTracker) notify(update ProgressUpdate) {
	for subscriber := range t.Subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

// Subscribe 订阅进度更新，立即收到当前状态
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 10)
	t.Subscribers[subscriber] = true

	subscriber <- ProgressUpdate{Progress: t.Progress, Message: t.Message, Status: t.Status}
	return subscriber
}

// Unsubscribe 取消订阅
func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.Subscribers[subscriber]; ok {
		delete(t.Subscribers, subscriber)
		close(subscriber)
	}
}

// CleanupCompletedTasks 清理超过保留时间的已结束任务
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		isFinished := tracker.Status == "completed" || tracker.Status == "failed"
		isOld := now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if isFinished && isOld {
			delete(s.trackers, id)
		}
	}
}
