package workforce_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

func TestValidateAllocation_PercentRange(t *testing.T) {
	base := alloc("a1", "alpha", 50, day(time.March, 1), nil, workforce.AllocationActive)
	require.NoError(t, workforce.ValidateAllocation(base))

	for _, v := range []int64{0, 101, -5} {
		a := base
		a.Percent = pct(v)
		err := workforce.ValidateAllocation(a)
		assert.ErrorIs(t, err, workforce.ErrPercentOutOfRange, "percent %d", v)
		assert.True(t, workforce.IsClientError(err))
	}

	for _, v := range []int64{1, 100} {
		a := base
		a.Percent = pct(v)
		assert.NoError(t, workforce.ValidateAllocation(a), "percent %d", v)
	}
}

func TestValidateAllocation_EndBeforeStart(t *testing.T) {
	a := alloc("a1", "alpha", 50, day(time.March, 10), datePtr(day(time.March, 9)), workforce.AllocationActive)
	err := workforce.ValidateAllocation(a)
	assert.ErrorIs(t, err, workforce.ErrInvalidPeriod)
}

func TestValidateAllocation_MissingFields(t *testing.T) {
	err := workforce.ValidateAllocation(workforce.Allocation{Percent: pct(10), Status: "Paused"})
	var v *workforce.ValidationError
	require.True(t, errors.As(err, &v))
	fields := map[string]bool{}
	for _, f := range v.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["employee_id"])
	assert.True(t, fields["project_id"])
	assert.True(t, fields["start_date"])
	assert.True(t, fields["status"])
}

func TestCheckDuplicate(t *testing.T) {
	existing := []workforce.Allocation{
		alloc("a1", "alpha", 60, day(time.January, 1), nil, workforce.AllocationActive),
		alloc("a2", "beta", 20, day(time.January, 1), datePtr(day(time.February, 1)), workforce.AllocationEnded),
	}

	// GIVEN: Jane is already current on alpha
	err := workforce.CheckDuplicate(existing, "jane", "alpha", "")
	var dup *workforce.DuplicateAssignmentError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, workforce.AllocationID("a1"), dup.ExistingID)
	assert.True(t, workforce.IsConflict(err))

	// Ended allocations do not block, nor does the row being edited.
	assert.NoError(t, workforce.CheckDuplicate(existing, "jane", "beta", ""))
	assert.NoError(t, workforce.CheckDuplicate(existing, "jane", "alpha", "a1"))
	assert.NoError(t, workforce.CheckDuplicate(existing, "john", "alpha", ""))
}

func TestNewTransition_EndDateDefaults(t *testing.T) {
	today := day(time.June, 1)
	a := alloc("a1", "alpha", 60, day(time.January, 1), nil, workforce.AllocationActive)
	a.Role = "Lead"

	tr := workforce.NewTransition("t1", a, workforce.RemovalDetails{Remarks: "great performer", ManagerName: "Sam"}, today)
	assert.Equal(t, today, tr.EndDate)
	assert.Equal(t, workforce.TransitionCompleted, tr.Status)
	assert.Equal(t, "great performer", tr.Remarks)
	assert.Equal(t, workforce.AllocationID("a1"), tr.AllocationID)
	assert.Equal(t, "Lead", tr.Role)

	// An allocation that already ended keeps its own end date.
	a.EndDate = datePtr(day(time.April, 30))
	tr = workforce.NewTransition("t2", a, workforce.RemovalDetails{}, today)
	assert.Equal(t, day(time.April, 30), tr.EndDate)

	// A future-starting allocation never ends before it starts.
	b := alloc("b1", "beta", 10, day(time.July, 1), nil, workforce.AllocationPlanned)
	tr = workforce.NewTransition("t3", b, workforce.RemovalDetails{}, today)
	assert.Equal(t, day(time.July, 1), tr.EndDate)
}
