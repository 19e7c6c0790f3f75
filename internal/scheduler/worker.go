package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/outreach"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine *outreach.Engine
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, engine *outreach.Engine, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: engine,
		log:    log,
	}

	mux.HandleFunc(TaskOutreachCycle, w.handleOutreachCycle)

	return w, nil
}

func (w *Worker) handleOutreachCycle(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutreachCyclePayload(task)
	if err != nil {
		return err
	}

	channel := domain.Channel(payload.Channel)
	if !channel.IsValid() {
		// A bad payload will never become valid; retrying is pointless.
		w.log.Warn("dropping cycle task with unknown channel", "channel", payload.Channel)
		return nil
	}

	_, err = w.engine.RunCycle(ctx, channel)
	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
