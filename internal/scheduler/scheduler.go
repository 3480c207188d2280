package scheduler

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/pipeline"
	"github.com/interview-prep/judge/internal/rabbitmq/responder"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
)

// Scheduler bounds how many judge invocations run at once. When every worker
// is busy new work is refused with ErrFailedToGetFreeWorker instead of queued.
type Scheduler interface {
	GetWorkersStatus() messages.ResponseWorkerStatusPayload
	// ProcessTask hands a queued task to a free worker and returns at once.
	ProcessTask(responseQueueName, messageID string, task *messages.QueueMessage) error
	Run(ctx context.Context, messageID string, req messages.RunRequest) (*messages.RunResponse, error)
	Submit(ctx context.Context, messageID string, req messages.SubmitRequest) (*messages.SubmitResponse, error)
	// Shutdown cancels queued tasks still running and waits for them.
	Shutdown()
}

type scheduler struct {
	mu               sync.Mutex
	busyWorkersCount int
	workers          map[int]pipeline.Worker
	maxWorkers       int
	baseCtx          context.Context
	cancel           context.CancelFunc
	inFlight         sync.WaitGroup
	metrics          *metrics.Metrics
	logger           *zap.SugaredLogger
}

func NewScheduler(
	maxWorkers int,
	judge pipeline.Judge,
	responder responder.Responder,
	metrics *metrics.Metrics,
) Scheduler {
	workers := make(map[int]pipeline.Worker, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		workers[i] = pipeline.NewWorker(i, judge, responder)
	}
	return NewSchedulerWithWorkers(workers, metrics)
}

func NewSchedulerWithWorkers(workers map[int]pipeline.Worker, metrics *metrics.Metrics) Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &scheduler{
		workers:    workers,
		maxWorkers: len(workers),
		baseCtx:    ctx,
		cancel:     cancel,
		metrics:    metrics,
		logger:     logger.NewNamedLogger("scheduler"),
	}
}

func (s *scheduler) GetWorkersStatus() messages.ResponseWorkerStatusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	statuses := make([]messages.WorkerStatus, 0, len(ids))
	for _, id := range ids {
		state := s.workers[id].GetState()
		statuses = append(statuses, messages.WorkerStatus{
			WorkerID:            id,
			Status:              state.Status,
			ProcessingMessageID: state.ProcessingMessageID,
		})
	}

	return messages.ResponseWorkerStatusPayload{
		BusyWorkers:  s.busyWorkersCount,
		TotalWorkers: s.maxWorkers,
		WorkerStatus: statuses,
	}
}

// getFreeWorker reserves an idle worker. Background tasks are counted while
// the lock is held so Shutdown never misses one.
func (s *scheduler) getFreeWorker(background bool) (pipeline.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx.Err() != nil {
		return nil, errors.ErrFailedToGetFreeWorker
	}

	for id := 0; id < s.maxWorkers; id++ {
		worker, ok := s.workers[id]
		if !ok {
			continue
		}
		if worker.GetState().Status == constants.WorkerStatusIdle {
			worker.UpdateStatus(constants.WorkerStatusBusy)
			s.busyWorkersCount++
			s.metrics.SetBusyWorkers(s.busyWorkersCount)
			if background {
				s.inFlight.Add(1)
			}
			return worker, nil
		}
	}

	return nil, errors.ErrFailedToGetFreeWorker
}

func (s *scheduler) markWorkerAsIdle(worker pipeline.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker.UpdateStatus(constants.WorkerStatusIdle)
	s.busyWorkersCount--
	s.metrics.SetBusyWorkers(s.busyWorkersCount)

	s.logger.Debugf("Worker marked as idle [WorkerID: %d]", worker.GetId())
}

func (s *scheduler) ProcessTask(responseQueueName, messageID string, task *messages.QueueMessage) error {
	s.logger.Infof("Scheduling %s task [MsgID: %s]", task.Type, messageID)

	worker, err := s.getFreeWorker(true)
	if err != nil {
		s.logger.Warnf("No available workers [MsgID: %s]", messageID)
		return err
	}

	go func(w pipeline.Worker) {
		defer s.inFlight.Done()
		defer s.markWorkerAsIdle(w)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Worker panicked: %v [MsgID: %s]", r, messageID)
			}
		}()

		w.ProcessTask(s.baseCtx, messageID, responseQueueName, task)
	}(worker)

	return nil
}

func (s *scheduler) Run(
	ctx context.Context,
	messageID string,
	req messages.RunRequest,
) (*messages.RunResponse, error) {
	worker, err := s.getFreeWorker(false)
	if err != nil {
		s.logger.Warnf("No available workers [MsgID: %s]", messageID)
		return nil, err
	}
	defer s.markWorkerAsIdle(worker)

	return worker.Run(ctx, messageID, req)
}

func (s *scheduler) Submit(
	ctx context.Context,
	messageID string,
	req messages.SubmitRequest,
) (*messages.SubmitResponse, error) {
	worker, err := s.getFreeWorker(false)
	if err != nil {
		s.logger.Warnf("No available workers [MsgID: %s]", messageID)
		return nil, err
	}
	defer s.markWorkerAsIdle(worker)

	return worker.Submit(ctx, messageID, req)
}

func (s *scheduler) Shutdown() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	s.inFlight.Wait()
	s.logger.Info("All workers stopped")
}
