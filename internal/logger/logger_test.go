package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetach_KeepsFieldsDropsCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	ctx = WithUserID(WithRequestID(ctx, "req-1"), "user-1")

	detached := Detach(ctx)
	<-ctx.Done()

	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-1", GetRequestID(detached))
	assert.Equal(t, "user-1", GetUserID(detached))
}

func TestInitWithFile_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitWithFile("production", FileOptions{Filename: path})
	defer Init("development")

	CtxInfo(WithRequestID(context.Background(), "req-42"), "contribution submitted", "contribution_id", "c-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "contribution submitted")
	assert.Contains(t, string(data), "req-42")
}
