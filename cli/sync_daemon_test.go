// ABOUTME: Unit tests for sync daemon mode
// ABOUTME: Tests interval validation, loop scheduling, fatal error handling, and time formatting
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/resell/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     time.Duration
		wantErr  bool
	}{
		{name: "valid 1 hour", interval: "1h", want: time.Hour},
		{name: "valid 15 minutes", interval: "15m", want: 15 * time.Minute},
		{name: "valid 5 minutes (minimum)", interval: "5m", want: 5 * time.Minute},
		{name: "valid 24 hours", interval: "24h", want: 24 * time.Hour},
		{name: "invalid 4 minutes (below minimum)", interval: "4m", wantErr: true},
		{name: "invalid 1 minute", interval: "1m", wantErr: true},
		{name: "invalid format", interval: "invalid", wantErr: true},
		{name: "empty string", interval: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateInterval(tt.interval)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaemonLoopRunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	err := runDaemonLoop(ctx, 10*time.Millisecond, func(context.Context) error {
		runs++
		if runs == 3 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, runs)
}

func TestDaemonLoopRetriesTransientFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	err := runDaemonLoop(ctx, 10*time.Millisecond, func(context.Context) error {
		runs++
		if runs == 2 {
			cancel()
		}
		return &sync.SyncError{RunID: "run", Err: fmt.Errorf("%w: page 1: timeout", sync.ErrRemoteFetch)}
	})

	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestDaemonLoopStopsWhenRelinkRequired(t *testing.T) {
	for _, sentinel := range []error{sync.ErrCredentialExpired, sync.ErrCredentialMissing, sync.ErrMarketplaceUnavailable} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			runs := 0
			err := runDaemonLoop(context.Background(), 10*time.Millisecond, func(context.Context) error {
				runs++
				return &sync.SyncError{RunID: "run", Err: sentinel}
			})

			assert.True(t, errors.Is(err, sentinel))
			assert.Equal(t, 1, runs)
		})
	}
}

func TestDaemonLoopStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := 0
	err := runDaemonLoop(ctx, time.Hour, func(ctx context.Context) error {
		runs++
		return ctx.Err()
	})

	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{name: "just now (30 seconds)", time: now.Add(-30 * time.Second), expected: "just now"},
		{name: "1 minute ago", time: now.Add(-1 * time.Minute), expected: "1 minute ago"},
		{name: "5 minutes ago", time: now.Add(-5 * time.Minute), expected: "5 minutes ago"},
		{name: "1 hour ago", time: now.Add(-1 * time.Hour), expected: "1 hour ago"},
		{name: "3 hours ago", time: now.Add(-3 * time.Hour), expected: "3 hours ago"},
		{name: "1 day ago", time: now.Add(-24 * time.Hour), expected: "1 day ago"},
		{name: "5 days ago", time: now.Add(-5 * 24 * time.Hour), expected: "5 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatTimeSince(tt.time))
		})
	}
}

func TestSetFlagsOnlyReportsPassedFlags(t *testing.T) {
	fs := flag.NewFlagSet("update-purchase", flag.ContinueOnError)
	notes := fs.String("notes", "", "")
	status := fs.String("status", "", "")
	mailing := fs.Bool("mailing-list", false, "")
	require.NoError(t, fs.Parse([]string{"--notes", "", "--mailing-list=false", "abc"}))

	set := setFlags(fs)
	assert.True(t, set["notes"])
	assert.True(t, set["mailing-list"])
	assert.False(t, set["status"])

	got := stringIfSet(set, "notes", notes)
	require.NotNil(t, got, "an explicitly empty value still clears the field")
	assert.Equal(t, "", *got)
	assert.Nil(t, stringIfSet(set, "status", status))
	require.NotNil(t, boolIfSet(set, "mailing-list", mailing))
	assert.False(t, *boolIfSet(set, "mailing-list", mailing))
	assert.Equal(t, []string{"abc"}, fs.Args())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Vintage…", truncate("Vintage brass lamp", 8))
}
