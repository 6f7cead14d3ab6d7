package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandExecutor_Run(t *testing.T) {
	executor := NewCommandExecutor("")
	ctx := context.Background()

	t.Run("should execute a simple command successfully", func(t *testing.T) {
		result, err := executor.Run(ctx, "echo", "hello world")
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", string(result.Stdout))
		assert.Empty(t, result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("should capture stderr", func(t *testing.T) {
		result, err := executor.Run(ctx, "sh", "-c", "echo 'hello stderr' 1>&2")
		require.NoError(t, err)
		assert.Empty(t, result.Stdout)
		assert.Equal(t, "hello stderr\n", result.Stderr)
		assert.Equal(t, 0, result.ExitCode)
	})

	t.Run("should handle non-zero exit codes", func(t *testing.T) {
		result, err := executor.Run(ctx, "sh", "-c", "exit 42")
		require.NoError(t, err)
		assert.Equal(t, 42, result.ExitCode)
	})

	t.Run("should return error for non-existent command", func(t *testing.T) {
		_, err := executor.Run(ctx, "this_command_does_not_exist_12345")
		assert.Error(t, err)
	})

	t.Run("should run in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		result, err := NewCommandExecutor(dir).Run(ctx, "pwd")
		require.NoError(t, err)
		assert.Contains(t, string(result.Stdout), dir)
	})

	t.Run("should stop on cancellation", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := executor.Run(canceled, "sleep", "5")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
