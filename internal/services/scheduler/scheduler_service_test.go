package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/models"
)

type fakeRunner struct {
	mu    sync.Mutex
	envs  []*models.Environment
	runs  []string
	fail  map[string]bool
	panic map[string]bool
}

func (r *fakeRunner) List(context.Context) ([]*models.Environment, error) {
	return r.envs, nil
}

func (r *fakeRunner) Run(_ context.Context, id string) (*models.RunResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, id)
	if r.panic[id] {
		panic("run exploded")
	}
	if r.fail[id] {
		return nil, errors.New("upstream down")
	}
	return &models.RunResponse{Summary: models.RunSummary{Total: 2, Passed: 1}}, nil
}

func TestStartRegistersScheduledEnvironments(t *testing.T) {
	runner := &fakeRunner{envs: []*models.Environment{
		{ID: "a", Name: "Alpha", Schedule: "@daily"},
		{ID: "b", Name: "Beta"},
		{ID: "c", Name: "Gamma", Schedule: "not a schedule"},
	}}
	s := NewService(runner, common.NewSilentLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(context.Background()))

	statuses := s.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "a", statuses[0].EnvironmentID)
	assert.Equal(t, "@daily", statuses[0].Schedule)
	assert.NotNil(t, statuses[0].NextRun)
}

func TestRescheduleOnSaveAndDelete(t *testing.T) {
	s := NewService(&fakeRunner{}, common.NewSilentLogger())

	s.EnvironmentSaved(&models.Environment{ID: "a", Name: "Alpha", Schedule: "0 9 * * 1-5"})
	s.EnvironmentSaved(&models.Environment{ID: "b", Name: "Beta", Schedule: "@hourly"})
	require.Len(t, s.Statuses(), 2)

	s.EnvironmentSaved(&models.Environment{ID: "a", Name: "Alpha", Schedule: "@weekly"})
	statuses := s.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "@weekly", statuses[0].Schedule)
	assert.Len(t, s.cron.Entries(), 2, "old entry removed")

	s.EnvironmentSaved(&models.Environment{ID: "b", Name: "Beta"})
	require.Len(t, s.Statuses(), 1)

	s.EnvironmentDeleted("a")
	assert.Empty(t, s.Statuses())
	assert.Empty(t, s.cron.Entries())
}

func TestExecuteJobTracksStatus(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"bad": true}, panic: map[string]bool{"boom": true}}
	s := NewService(runner, common.NewSilentLogger())
	for _, id := range []string{"good", "bad", "boom"} {
		s.EnvironmentSaved(&models.Environment{ID: id, Name: id, Schedule: "@daily"})
	}

	s.executeJob("good")
	s.executeJob("bad")
	s.executeJob("boom")
	s.executeJob("unknown")

	assert.Equal(t, []string{"good", "bad", "boom"}, runner.runs)

	byID := make(map[string]JobStatus)
	for _, st := range s.Statuses() {
		byID[st.EnvironmentID] = st
	}
	assert.NotNil(t, byID["good"].LastRun)
	assert.Empty(t, byID["good"].LastError)
	assert.Equal(t, "upstream down", byID["bad"].LastError)
	assert.Equal(t, "panic: run exploded", byID["boom"].LastError)
	assert.False(t, byID["boom"].IsRunning)
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewService(&fakeRunner{}, common.NewSilentLogger())
	assert.NoError(t, s.Stop())

	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
