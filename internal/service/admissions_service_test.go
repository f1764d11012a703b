package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

func TestAdmissionsSubmitAndDecide(t *testing.T) {
	svc := NewAdmissionsService(nil, nil, zap.NewNop())
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	id1 := svc.Submit("Ann", "Lee", now)
	id2 := svc.Submit("Bo", "Lee", now)
	id3 := svc.Submit("Cy", "Park", now)
	assert.Equal(t, []int64{1, 2, 3}, []int64{id1, id2, id3})

	lees := svc.ListByLastName("lee")
	require.Len(t, lees, 2)
	assert.Equal(t, int64(1), lees[0].ID)
	assert.Equal(t, int64(2), lees[1].ID)
	assert.Empty(t, svc.ListByLastName("Le"))

	assert.True(t, svc.Decide(id2, models.ApplicationAccepted))
	applicant, ok := svc.Get(id2)
	require.True(t, ok)
	assert.Equal(t, models.ApplicationAccepted, applicant.Status)
	assert.Equal(t, "#2 Bo Lee (Accepted)", applicant.Summary())

	all := svc.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, models.ApplicationSubmitted, all[0].Status)
	assert.Equal(t, models.ApplicationAccepted, all[1].Status)
	assert.Equal(t, models.ApplicationSubmitted, all[2].Status)
}

func TestAdmissionsDecideMissingLeavesStateUntouched(t *testing.T) {
	svc := NewAdmissionsService(nil, nil, nil)
	svc.Submit("Ann", "Lee", time.Now())
	before := svc.ListAll()

	assert.False(t, svc.Decide(99, models.ApplicationRejected))
	assert.False(t, svc.Decide(0, models.ApplicationRejected))
	assert.Equal(t, before, svc.ListAll())
}

func TestAdmissionsDecisionCanBeOverwritten(t *testing.T) {
	svc := NewAdmissionsService(nil, nil, nil)
	id := svc.Submit("Ann", "Lee", time.Now())

	assert.True(t, svc.Decide(id, models.ApplicationRejected))
	assert.True(t, svc.Decide(id, models.ApplicationAccepted))
	applicant, _ := svc.Get(id)
	assert.Equal(t, models.ApplicationAccepted, applicant.Status)
}

func TestAdmissionsSnapshotIsolation(t *testing.T) {
	svc := NewAdmissionsService(nil, nil, nil)
	svc.Submit("Ann", "Lee", time.Now())

	snapshot := svc.ListAll()
	snapshot[0].Status = models.ApplicationRejected
	svc.Submit("Bo", "Kim", time.Now())

	assert.Len(t, snapshot, 1)
	applicant, _ := svc.Get(1)
	assert.Equal(t, models.ApplicationSubmitted, applicant.Status)
}

func TestAdmissionsConcurrentSubmitAssignsDenseIDs(t *testing.T) {
	svc := NewAdmissionsService(NewMetricsService(), nil, nil)
	const k = 200

	var wg sync.WaitGroup
	ids := make([]int64, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = svc.Submit("First", "Last", time.Now())
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
	assert.Len(t, svc.ListAll(), k)
	assert.Equal(t, uint64(k), svc.metrics.Snapshot().ApplicationsSubmitted)
}

func TestAdmissionsRequests(t *testing.T) {
	svc := NewAdmissionsService(nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.FixedZone("X", 3600)) }

	_, err := svc.SubmitRequest(context.Background(), SubmitApplicationRequest{FirstName: "  ", LastName: "Lee"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	applicant, err := svc.SubmitRequest(context.Background(), SubmitApplicationRequest{FirstName: " Ann ", LastName: "Lee"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), applicant.ID)
	assert.Equal(t, "Ann", applicant.FirstName)
	assert.Equal(t, time.UTC, applicant.SubmittedAt.Location())

	_, err = svc.DecideRequest(context.Background(), 1, DecideApplicationRequest{Status: "maybe"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.DecideRequest(context.Background(), 7, DecideApplicationRequest{Status: "accepted"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	decided, err := svc.DecideRequest(context.Background(), 1, DecideApplicationRequest{Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, decided.Status)
}
