package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs_KeepsAllowedFlagAndValue(t *testing.T) {
	args := []string{"-u", "https://example.test/upload", "-x", "junk", "-q", "/var/queue"}
	got := FilterArgs(args, []string{"-u", "-q"})
	require.Equal(t, []string{"-u", "https://example.test/upload", "-q", "/var/queue"}, got)
}

func TestFilterArgs_KeepsEqualsForm(t *testing.T) {
	args := []string{"--token=abc", "-other=skip", "--queue=/var/queue"}
	got := FilterArgs(args, []string{"--token", "--queue"})
	require.Equal(t, []string{"--token=abc", "--queue=/var/queue"}, got)
}

func TestFilterArgs_EmptyWhenNothingMatches(t *testing.T) {
	got := FilterArgs([]string{"-a", "1", "-b"}, []string{"-z"})
	require.Empty(t, got)
}

func TestFilterArgs_BooleanStyleFlagWithoutValue(t *testing.T) {
	got := FilterArgs([]string{"-v", "-u", "url"}, []string{"-v"})
	require.Equal(t, []string{"-v"}, got)
}
