package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"imageserver/internal/jobs"
)

func TestLockWithoutRedisRunsUnlocked(t *testing.T) {
	lock := jobs.NewLock(nil, 10*time.Minute)

	release, err := lock.Acquire(context.Background(), "cleanup-failed")
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}
