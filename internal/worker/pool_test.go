package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xgoalpro/prediction-api/internal/ensemble"
)

type stubInferencer struct {
	predictFunc func(features []float64, sel ensemble.Selection) (float64, float64, error)
}

func (s *stubInferencer) Predict(features []float64, sel ensemble.Selection) (float64, float64, error) {
	if s.predictFunc != nil {
		return s.predictFunc(features, sel)
	}
	return 1.5, 1.0, nil
}

func TestSubmitReturnsOutcome(t *testing.T) {
	pool := NewPool(PoolConfig{
		WorkerCount: 2,
		QueueSize:   4,
		Predictor:   &stubInferencer{},
		Logger:      zap.NewNop(),
	})
	pool.Start(context.Background())
	defer pool.Stop()

	out := <-pool.Submit([]float64{1, 2}, ensemble.Selection{true})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.HomeXG != 1.5 || out.AwayXG != 1.0 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestSubmitPropagatesInferenceError(t *testing.T) {
	boom := errors.New("scaler missing")
	pool := NewPool(PoolConfig{
		WorkerCount: 1,
		QueueSize:   1,
		Predictor: &stubInferencer{
			predictFunc: func([]float64, ensemble.Selection) (float64, float64, error) {
				return 0, 0, boom
			},
		},
		Logger: zap.NewNop(),
	})
	pool.Start(context.Background())
	defer pool.Stop()

	out := <-pool.Submit(nil, ensemble.Selection{true})
	if !errors.Is(out.Err, boom) {
		t.Fatalf("expected inference error, got %v", out.Err)
	}
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	done := 0
	pool := NewPool(PoolConfig{
		WorkerCount: 1,
		QueueSize:   8,
		Predictor: &stubInferencer{
			predictFunc: func([]float64, ensemble.Selection) (float64, float64, error) {
				done++
				return 0.5, 0.5, nil
			},
		},
		Logger: zap.NewNop(),
	})
	pool.Start(context.Background())

	results := make([]<-chan Outcome, 0, 3)
	for i := 0; i < 3; i++ {
		results = append(results, pool.Submit([]float64{float64(i)}, ensemble.Selection{true}))
	}
	pool.Stop()

	for i, ch := range results {
		select {
		case out := <-ch:
			if out.Err != nil {
				t.Errorf("job %d: unexpected error %v", i, out.Err)
			}
		case <-time.After(time.Second):
			t.Fatalf("job %d: no result after drain", i)
		}
	}
	if done != 3 {
		t.Errorf("expected 3 completed jobs, got %d", done)
	}
}

func TestSubmitAfterStopReturnsError(t *testing.T) {
	pool := NewPool(PoolConfig{
		WorkerCount: 1,
		QueueSize:   1,
		Predictor:   &stubInferencer{},
		Logger:      zap.NewNop(),
	})
	pool.Start(context.Background())
	pool.Stop()

	select {
	case out := <-pool.Submit([]float64{1}, ensemble.Selection{true}):
		if !errors.Is(out.Err, ErrPoolStopped) {
			t.Fatalf("expected ErrPoolStopped, got %v", out.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after Stop must not block")
	}
}

func TestQueueDepth(t *testing.T) {
	pool := NewPool(PoolConfig{
		WorkerCount: 1,
		QueueSize:   4,
		Predictor:   &stubInferencer{},
		Logger:      zap.NewNop(),
	})
	if pool.QueueDepth() != 0 {
		t.Errorf("expected empty queue, got %d", pool.QueueDepth())
	}
}
