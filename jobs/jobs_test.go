package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/bondly/bondly/internal/jobs"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeWarmer struct {
	calls    int
	err      error
	deadline bool
}

func (f *fakeWarmer) Warm(ctx context.Context) error {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.err
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestDashboardWarmupRunsWarm(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewDashboardWarmupJob(warmer, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Reason: "test"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)
	assert.True(t, warmer.deadline)
}

func TestDashboardWarmupAcceptsEmptyPayload(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewDashboardWarmupJob(warmer, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
	assert.Equal(t, 1, warmer.calls)
}

func TestDashboardWarmupErrors(t *testing.T) {
	boom := errors.New("db down")
	job := NewDashboardWarmupJob(&fakeWarmer{err: boom}, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)), boom)

	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var nilJob *DashboardWarmupJob
	assert.Error(t, nilJob.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
}

func TestClientEnqueuesUniqueWarmup(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := newClient(enq, discard)

	client.PartnersChanged(context.Background())

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskDashboardWarmup, enq.tasks[0].Type())
	var payload DashboardWarmupPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "partners_changed", payload.Reason)

	types := map[asynq.OptionType]any{}
	for _, o := range enq.opts[0] {
		types[o.Type()] = o.Value()
	}
	assert.Equal(t, QueueDefault, types[asynq.QueueOpt])
	assert.Equal(t, warmupUniqueTTL, types[asynq.UniqueOpt])
	assert.Equal(t, warmupDelay, types[asynq.ProcessInOpt])
}

func TestClientSwallowsEnqueueFailure(t *testing.T) {
	client := newClient(&fakeEnqueuer{err: asynq.ErrDuplicateTask}, discard)
	assert.NotPanics(t, func() { client.PartnersChanged(context.Background()) })

	var nilClient *Client
	assert.NotPanics(t, func() { nilClient.PartnersChanged(context.Background()) })
}

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{name: "no inspector", status: http.StatusOK},
		{name: "queue info", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, status: http.StatusOK, pending: 3},
		{name: "redis down", inspector: fakeInspector{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/api/jobs", NewHandler(tc.inspector, discard).MountRoutes)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil))

			require.Equal(t, tc.status, rr.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body struct {
				Data QueueHealth `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, QueueDefault, body.Data.Queue)
			assert.Equal(t, tc.pending, body.Data.Pending)
		})
	}
}

func TestNewWorkerRegistersCron(t *testing.T) {
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
	require.NoError(t, err)

	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Logger:    discard,
		Handlers:  []TaskHandler{{Type: TaskDashboardWarmup, Handler: NewDashboardWarmupJob(&fakeWarmer{}, discard, nil).Handle}},
		Cron:      []CronRegistration{{Spec: "*/10 * * * *", Task: task}},
	})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	assert.Error(t, err)
}

type fakePurger struct {
	olderThan time.Duration
	err       error
}

func (f *fakePurger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 2, f.err
}

func TestIdempotencyCleanupRetention(t *testing.T) {
	purger := &fakePurger{}
	job := NewIdempotencyCleanupJob(purger, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewIdempotencyCleanupTask(12)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 12*time.Hour, purger.olderThan)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, defaultRetentionHours*time.Hour, purger.olderThan)

	purger.err = errors.New("db down")
	assert.ErrorIs(t, job.Handle(context.Background(), task), purger.err)
}
