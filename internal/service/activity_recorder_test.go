package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/observability"
)

func TestActivityRecorderCountsCommittedChanges(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	NewActivityRecorder(dispatcher, zap.New(core), metrics).RegisterHandlers()

	f := setupService(t)
	f.requests.dispatcher = dispatcher
	ctx := context.Background()

	req := f.create(t, f.employee, nil)
	change := domain.RequestChange{NewStatus: ptr(domain.StatusInProgress), NewAssigneeID: ptr(f.agent.UserID)}
	if _, err := f.requests.Update(ctx, f.agent, req.ID, change, api()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for _, msg := range []string{"RequestCreated", "RequestStatusChanged", "RequestAssigneeChanged"} {
		if n := logs.FilterMessage(msg).Len(); n != 1 {
			t.Errorf("%s logged %d times", msg, n)
		}
	}

	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	counts := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			key := fam.GetName()
			for _, l := range m.GetLabel() {
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	want := map[string]float64{
		"service_request_mutations_total,action=created":            1,
		"service_request_mutations_total,action=status_changed":     1,
		"service_request_mutations_total,action=assignee_changed":   1,
		"service_request_transitions_total,from=NEW,to=IN_PROGRESS": 1,
	}
	for key, v := range want {
		if counts[key] != v {
			t.Errorf("%s = %v, want %v", key, counts[key], v)
		}
	}
}
