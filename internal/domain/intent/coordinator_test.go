package intent_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/intent"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/attention/internal/testutil"
)

func startCoordinator(t *testing.T, queueSize int) (*intent.Coordinator, *attention.Store) {
	t.Helper()

	logger := testutil.NewLogger(t)
	store := attention.NewStore(logger, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, logger, queueSize)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- coord.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
	return coord, store
}

func TestSubmitWaitsForApplication(t *testing.T) {
	coord, store := startCoordinator(t, 4)
	ctx := context.Background()

	el := testutil.Widget("e1", attention.UrgencyHigh, 50, attention.Needs{Screen: 10})
	require.NoError(t, coord.Submit(ctx, intent.Register(el)))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, attention.OutcomeAllocated, el.Outcome())

	require.NoError(t, coord.Submit(ctx, intent.Unregister("e1")))
	assert.Zero(t, store.Len())
}

func TestIntentsApplyInOrder(t *testing.T) {
	coord, store := startCoordinator(t, 64)
	ctx := context.Background()

	var modalities []attention.Modality
	store.OnChange(func(c attention.Context) { modalities = append(modalities, c.Modality) })

	sequence := []attention.Modality{
		attention.ModalityVoiceOnly,
		attention.ModalityScreen,
		attention.ModalityVoiceScreen,
		attention.ModalityVoiceOnly,
	}
	for _, m := range sequence {
		require.NoError(t, coord.Emit(ctx, intent.SetModality(m)))
	}
	require.NoError(t, coord.Submit(ctx, intent.Refresh()))

	assert.Equal(t, append(sequence, attention.ModalityVoiceOnly), modalities)
}

func TestSubmitReportsInvalidIntents(t *testing.T) {
	coord, store := startCoordinator(t, 4)
	ctx := context.Background()

	tests := []struct {
		name string
		in   intent.Intent
	}{
		{"register nil", intent.Register(nil)},
		{"unregister empty", intent.Unregister("")},
		{"empty update", intent.UpdateContext(attention.ContextUpdate{})},
		{"empty modality", intent.SetModality(" ")},
		{"unknown kind", intent.Intent{Kind: "explode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := coord.Submit(ctx, tt.in)
			assert.ErrorIs(t, err, intent.ErrInvalidIntent)
		})
	}

	assert.Zero(t, store.Len())
}

func TestEmitBlocksWhenQueueFull(t *testing.T) {
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 1)

	require.NoError(t, coord.Emit(context.Background(), intent.Refresh()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, coord.Emit(ctx, intent.Refresh()), context.DeadlineExceeded)
}

func TestStoppedCoordinatorRejectsIntents(t *testing.T) {
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, coord.Run(ctx), context.Canceled)

	assert.ErrorIs(t, coord.Emit(context.Background(), intent.Refresh()), intent.ErrStopped)
	assert.ErrorIs(t, coord.Submit(context.Background(), intent.Refresh()), intent.ErrStopped)
}

func TestShutdownDiscardsQueuedIntents(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 4).WithMetrics(metrics)

	require.NoError(t, coord.Emit(context.Background(), intent.Refresh()))
	require.NoError(t, coord.Emit(context.Background(), intent.Refresh()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, coord.Run(ctx), context.Canceled)

	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("refresh", "discarded")))
	assert.Zero(t, promtest.ToFloat64(metrics.Intents.WithLabelValues("refresh", "applied")))
}

func TestEveryAcceptedIntentIsAccountedForAcrossShutdown(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 2).WithMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- coord.Run(ctx) }()

	const emitters = 8
	accepted := make(chan int, emitters)
	for i := 0; i < emitters; i++ {
		go func() {
			n := 0
			for coord.Emit(context.Background(), intent.Refresh()) == nil {
				n++
			}
			accepted <- n
		}()
	}

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-runDone, context.Canceled)

	total := 0
	for i := 0; i < emitters; i++ {
		total += <-accepted
	}

	applied := promtest.ToFloat64(metrics.Intents.WithLabelValues("refresh", "applied"))
	discarded := promtest.ToFloat64(metrics.Intents.WithLabelValues("refresh", "discarded"))
	assert.Equal(t, float64(total), applied+discarded)
	assert.ErrorIs(t, coord.Emit(context.Background(), intent.Refresh()), intent.ErrStopped)
}

func TestIntentValidate(t *testing.T) {
	el := testutil.NewMockElement(t, "e", 10, attention.Needs{})

	assert.NoError(t, intent.Register(el).Validate())
	assert.NoError(t, intent.Unregister("e").Validate())
	assert.NoError(t, intent.Intent{Kind: intent.KindUnregister, Element: el}.Validate())
	assert.NoError(t, intent.UpdateContext(attention.ContextUpdate{User: &attention.User{}}).Validate())
	assert.NoError(t, intent.SetModality(attention.ModalityVoiceOnly).Validate())
	assert.NoError(t, intent.Refresh().Validate())
	assert.NoError(t, intent.Configure("e", attention.Attributes{}).Validate())
	assert.ErrorIs(t, intent.Configure("", attention.Attributes{}).Validate(), intent.ErrInvalidIntent)
}

func TestSubmitConfigure(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 4).WithMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = coord.Run(ctx) }()

	el := testutil.Widget("w", attention.UrgencyLow, 10, attention.Needs{Screen: 10})
	require.NoError(t, coord.Submit(ctx, intent.Register(el)))
	require.Equal(t, attention.OutcomeDeferred, el.Outcome())

	require.NoError(t, coord.Submit(ctx, intent.Configure("w", attention.Attributes{Urgency: attention.UrgencyCritical, Weight: testutil.Float(10)})))
	assert.Equal(t, attention.OutcomeAllocated, el.Outcome())

	err := coord.Submit(ctx, intent.Configure("ghost", attention.Attributes{}))
	assert.ErrorIs(t, err, attention.ErrUnknownWidget)

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("configure", "applied")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("configure", "failed")))
}

func TestApplyBypassesQueue(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := attention.NewStore(nil, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, nil, 1).WithMetrics(metrics)

	el := testutil.Widget("direct", attention.UrgencyLow, 50, attention.Needs{Screen: 5})
	require.NoError(t, coord.Apply(intent.Register(el)))
	require.NoError(t, coord.Apply(intent.UpdateContext(attention.ContextUpdate{User: &attention.User{IsBusy: true}})))
	require.NoError(t, coord.Apply(intent.Intent{Kind: intent.KindUnregister, Element: el}))
	require.Error(t, coord.Apply(intent.Register(nil)))

	assert.Zero(t, store.Len())
	assert.True(t, store.Context().User.IsBusy)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("register", "applied")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("register", "rejected")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Intents.WithLabelValues("unregister", "applied")))
}
