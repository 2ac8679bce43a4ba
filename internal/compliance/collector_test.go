// File: internal/compliance/collector_test.go
package compliance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Mocks --

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListMachines(ctx context.Context, scope string) ([]schemas.MachineIdentity, error) {
	args := m.Called(ctx, scope)
	machines, _ := args.Get(0).([]schemas.MachineIdentity)
	return machines, args.Error(1)
}

func (m *mockSource) ListGroups(ctx context.Context) ([]schemas.Group, error) {
	args := m.Called(ctx)
	groups, _ := args.Get(0).([]schemas.Group)
	return groups, args.Error(1)
}

func (m *mockSource) GetUpdateStates(ctx context.Context, machineID string) ([]schemas.UpdateRecord, error) {
	args := m.Called(ctx, machineID)
	recs, _ := args.Get(0).([]schemas.UpdateRecord)
	return recs, args.Error(1)
}

func machines(n int) []schemas.MachineIdentity {
	out := make([]schemas.MachineIdentity, n)
	for i := range out {
		out[i] = schemas.MachineIdentity{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("host%02d", i)}
	}
	return out
}

func TestCollector_Collect(t *testing.T) {
	for _, concurrency := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			src := new(mockSource)
			src.On("ListMachines", mock.Anything, "Servers").Return(machines(10), nil)
			for i := 0; i < 10; i++ {
				neededStates := make([]string, i)
				for j := range neededStates {
					neededStates[j] = "Needed"
				}
				src.On("GetUpdateStates", mock.Anything, fmt.Sprintf("c%d", i)).Return(records(neededStates...), nil)
			}

			rows, err := NewCollector(src, concurrency, zap.NewNop()).Collect(context.Background(), "Servers")
			require.NoError(t, err)
			require.Len(t, rows, 10)
			for i, row := range rows {
				assert.Equal(t, fmt.Sprintf("host%02d", i), row.ComputerName, "rows keep source order")
				assert.Equal(t, i, row.Needed)
			}
			src.AssertExpectations(t)
		})
	}
}

func TestCollector_ScopeNotFound(t *testing.T) {
	src := new(mockSource)
	src.On("ListMachines", mock.Anything, "Kiosks").Return(nil, schemas.ErrScopeNotFound)

	rows, err := NewCollector(src, 2, nil).Collect(context.Background(), "Kiosks")
	assert.ErrorIs(t, err, schemas.ErrScopeNotFound)
	assert.Nil(t, rows)
	src.AssertNotCalled(t, "GetUpdateStates", mock.Anything, mock.Anything)
}

func TestCollector_FetchFailureIsFatal(t *testing.T) {
	src := new(mockSource)
	src.On("ListMachines", mock.Anything, "").Return(machines(3), nil)
	src.On("GetUpdateStates", mock.Anything, "c0").Return(records("Needed"), nil).Maybe()
	src.On("GetUpdateStates", mock.Anything, "c1").Return(nil, fmt.Errorf("%w: connection reset", schemas.ErrSourceUnavailable))
	src.On("GetUpdateStates", mock.Anything, "c2").Return(records("Installed"), nil).Maybe()

	rows, err := NewCollector(src, 1, nil).Collect(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "host01")
	assert.Nil(t, rows, "no partial row set")
}

func TestCollector_RespectsLimit(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32

	src := new(mockSource)
	src.On("ListMachines", mock.Anything, "").Return(machines(12), nil)
	src.On("GetUpdateStates", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}).
		Return(records("Installed"), nil)

	_, err := NewCollector(src, limit, nil).Collect(context.Background(), "")
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestCollector_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := new(mockSource)
	src.On("ListMachines", mock.Anything, "").Return(nil, ctx.Err())

	_, err := NewCollector(src, 1, nil).Collect(ctx, "")
	assert.True(t, errors.Is(err, context.Canceled))
}
