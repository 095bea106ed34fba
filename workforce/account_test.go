package workforce_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

func TestComputeAccountMetrics(t *testing.T) {
	acme := workforce.AccountID("acme")
	other := workforce.AccountID("other")
	ref := day(time.June, 1)

	projects := []workforce.Project{
		{ID: "alpha", AccountID: &acme, Status: workforce.ProjectActive},
		{ID: "beta", AccountID: &acme, Status: workforce.ProjectProposal},
		{ID: "gamma", AccountID: &other, Status: workforce.ProjectActive},
		{ID: "internal", Status: workforce.ProjectActive},
	}
	allocs := []workforce.Allocation{
		{EmployeeID: "jane", ProjectID: "alpha", Percent: pct(60), StartDate: day(time.January, 1), Status: workforce.AllocationActive},
		{EmployeeID: "john", ProjectID: "alpha", Percent: pct(40), StartDate: day(time.January, 1), Status: workforce.AllocationActive},
		{EmployeeID: "jane", ProjectID: "beta", Percent: pct(20), StartDate: day(time.January, 1), Status: workforce.AllocationPlanned},
		{EmployeeID: "mia", ProjectID: "beta", Percent: pct(90), StartDate: day(time.January, 1), Status: workforce.AllocationEnded},
		{EmployeeID: "leo", ProjectID: "gamma", Percent: pct(100), StartDate: day(time.January, 1), Status: workforce.AllocationActive},
	}

	m := workforce.ComputeAccountMetrics(acme, projects, allocs, ref)
	assert.Equal(t, 2, m.ProjectCount)
	assert.Equal(t, 1, m.ActiveProjectCount)
	assert.Equal(t, 2, m.UtilizedHeadcount)
	assert.True(t, m.AverageAllocation.Equal(pct(40)), "got %s", m.AverageAllocation)
}

func TestComputeAccountMetrics_NoProjects(t *testing.T) {
	m := workforce.ComputeAccountMetrics("empty", nil, nil, day(time.June, 1))
	assert.Zero(t, m.ProjectCount)
	assert.True(t, m.AverageAllocation.IsZero())
}

func TestDateAndPercent_JSON(t *testing.T) {
	type row struct {
		Start   workforce.Date    `json:"start"`
		End     *workforce.Date   `json:"end"`
		Percent workforce.Percent `json:"percent"`
	}
	var r row
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-03-01","end":null,"percent":62.5}`), &r))
	assert.Equal(t, day(time.March, 1), r.Start)
	assert.Nil(t, r.End)
	assert.True(t, r.Percent.Equal(workforce.NewPercentFromFloat(62.5)))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2025-03-01","end":null,"percent":62.5}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"03/01/2025"}`), &r))
}
