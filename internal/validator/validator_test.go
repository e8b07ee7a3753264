package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockValidator struct {
	mock.Mock
	name string
}

func (m *MockValidator) Name() string {
	return m.name
}

func (m *MockValidator) Validate(ctx context.Context) types.ValidationResult {
	args := m.Called(ctx)
	return args.Get(0).(types.ValidationResult)
}

func TestChain_Run_StopsAtFirstFailure(t *testing.T) {
	first := &MockValidator{name: "first"}
	first.On("Validate", mock.Anything).Return(types.Passed())
	second := &MockValidator{name: "second"}
	second.On("Validate", mock.Anything).Return(types.Failed("no room"))
	third := &MockValidator{name: "third"}

	chain := NewChain(logger.NewTest(), first, second, third)
	name, result := chain.Run(context.Background())

	assert.Equal(t, "second", name)
	assert.True(t, result.IsFailed())
	assert.Equal(t, "no room", result.Message)
	first.AssertNumberOfCalls(t, "Validate", 1)
	second.AssertNumberOfCalls(t, "Validate", 1)
	third.AssertNotCalled(t, "Validate", mock.Anything)
}

func TestChain_Run_AllPass(t *testing.T) {
	a := &MockValidator{name: "a"}
	a.On("Validate", mock.Anything).Return(types.Passed())
	b := &MockValidator{name: "b"}
	b.On("Validate", mock.Anything).Return(types.Passed())

	name, result := NewChain(logger.NewTest(), a, b).Run(context.Background())

	assert.Empty(t, name)
	assert.False(t, result.IsFailed())
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestChain_Run_Empty(t *testing.T) {
	chain := NewChain(logger.NewTest())
	_, result := chain.Run(context.Background())
	assert.False(t, result.IsFailed())
	assert.Zero(t, chain.Len())
}

type MockProjectLister struct {
	mock.Mock
}

func (m *MockProjectLister) ListUserProjects(ctx context.Context, username string) ([]types.UserProject, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.UserProject), args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProjectExists(t *testing.T) {
	tests := []struct {
		name     string
		projects []types.UserProject
		err      error
		failed   bool
	}{
		{name: "present", projects: []types.UserProject{{Name: "other"}, {Name: "churn"}}},
		{name: "absent", projects: []types.UserProject{{Name: "other"}}, failed: true},
		{name: "listing error", err: errors.New("HTTP 500"), failed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &MockProjectLister{}
			if tt.err != nil {
				lister.On("ListUserProjects", mock.Anything, "alice").Return(nil, tt.err)
			} else {
				lister.On("ListUserProjects", mock.Anything, "alice").Return(tt.projects, nil)
			}

			result := ProjectExists(lister, "alice", "churn").Validate(context.Background())
			assert.Equal(t, tt.failed, result.IsFailed(), result.Message)
			lister.AssertExpectations(t)
		})
	}
}

func TestAPIReachable(t *testing.T) {
	ok := APIReachable(pingFunc(func(context.Context) error { return nil }), "https://cml")
	assert.False(t, ok.Validate(context.Background()).IsFailed())

	down := APIReachable(pingFunc(func(context.Context) error { return errors.New("refused") }), "https://cml")
	result := down.Validate(context.Background())
	assert.True(t, result.IsFailed())
	assert.Contains(t, result.Message, "https://cml")
}
