package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/internal/notification"
	"irdesk/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		Notification: config.NotificationConfig{Driver: "log"},
		Verification: config.VerificationConfig{AuditBuffer: 8},
	}
}

func TestBuildInfraInMemory(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no registry without a seed file", func(t *testing.T) {
		in, err := buildInfra(context.Background(), testConfig(), nil, nil, log)
		require.NoError(t, err)
		defer in.close()

		assert.Nil(t, in.registry)
		assert.NotNil(t, in.applicants)
		assert.NotNil(t, in.revocations)
		assert.IsType(t, &notification.LogSender{}, in.notifier)
	})

	t.Run("seed file populates the registry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"201234","name":"BDO UNIBANK INC."}]`), 0o600))
		cfg := testConfig()
		cfg.Registry.SeedFile = path

		in, err := buildInfra(context.Background(), cfg, nil, nil, log)
		require.NoError(t, err)
		defer in.close()

		require.NotNil(t, in.registry)
		holders, err := in.registry.Lookup(context.Background(), "201234")
		require.NoError(t, err)
		assert.Len(t, holders, 1)
	})

	t.Run("unreadable seed file fails startup", func(t *testing.T) {
		cfg := testConfig()
		cfg.Registry.SeedFile = filepath.Join(t.TempDir(), "missing.json")
		_, err := buildInfra(context.Background(), cfg, nil, nil, log)
		assert.Error(t, err)
	})
}

func TestBuildNotifierRejectsBadAMQPURL(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, _, err := buildNotifier(config.NotificationConfig{Driver: "amqp", AMQPURL: "http://not-amqp"}, log)
	assert.Error(t, err)
}
