// File: internal/delivery/dispatch_test.go
package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

type mockSink struct {
	mock.Mock
	name string
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *mockSink) Deliver(ctx context.Context, report *schemas.Report) error {
	return m.Called(ctx, report).Error(0)
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	report := testReport()

	failing := &mockSink{name: "webhook"}
	failing.On("Enabled").Return(true)
	failing.On("Deliver", mock.Anything, report).Return(errors.New("connection refused"))

	working := &mockSink{name: "email"}
	working.On("Enabled").Return(true)
	working.On("Deliver", mock.Anything, report).Return(nil)

	err := NewDispatcher(zap.New(core), failing, working).Deliver(context.Background(), report)
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrDelivery)
	assert.Contains(t, err.Error(), "webhook")
	assert.Contains(t, err.Error(), "connection refused")

	working.AssertCalled(t, "Deliver", mock.Anything, report)
	assert.Equal(t, 1, logs.FilterMessage("Report delivery failed").Len())
}

func TestDispatcher_SkipsDisabled(t *testing.T) {
	disabled := &mockSink{name: "email"}
	disabled.On("Enabled").Return(false)

	require.NoError(t, NewDispatcher(nil, disabled).Deliver(context.Background(), testReport()))
	disabled.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_AllFail(t *testing.T) {
	a := &mockSink{name: "a"}
	a.On("Enabled").Return(true)
	a.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("boom a"))
	b := &mockSink{name: "b"}
	b.On("Enabled").Return(true)
	b.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("boom b"))

	err := NewDispatcher(zap.NewNop(), a, b).Deliver(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom a")
	assert.Contains(t, err.Error(), "boom b")
}
