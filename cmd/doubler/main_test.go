package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanExit(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, true},
		{"wrapped canceled", fmt.Errorf("headless: %w", context.Canceled), true},
		{"help", flag.ErrHelp, true},
		{"wrapped help", fmt.Errorf("flags: %w", flag.ErrHelp), true},
		{"other", errors.New("boom"), false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, cleanExit(tc.err))
		})
	}
}

func TestRunHelpIsCleanExit(t *testing.T) {
	err := run(&bytes.Buffer{}, []string{"-h"})
	require.True(t, cleanExit(err), "got %v", err)
}

func TestRunHeadlessCPU(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-headless", "-backend", "cpu", "-iterations", "2", "-log-level", "error"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "2.0, 4.0, 6.0, 8.0, 10.0")
	require.Contains(t, out.String(), "4.0, 8.0, 12.0, 16.0, 20.0")
}
