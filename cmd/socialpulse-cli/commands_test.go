package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/engine/enginetest"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/service"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Load()
	cfg.Retry.Delay = time.Millisecond
	cfg.Snapshot.Dir = t.TempDir()
	return cfg
}

func TestExecute_PrintsResponseShape(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{
		HTML: `<meta property="og:description" content="10 Followers, 2 Following, 3 Posts">`,
	}}}
	svcs := service.New(l, testConfig(t))

	var out bytes.Buffer
	err := execute(context.Background(), &out, svcs, func(ctx context.Context, s *service.Services) (any, error) {
		r, err := s.InstagramProfile.Scrape(ctx, "sufitramp")
		if err != nil {
			return nil, err
		}
		return models.NewInstagramProfileResponse(r), nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"sufitramp","Followers":10,"Following":2,"Posts":3}`, out.String())
}

func TestExecute_PrintsErrorBody(t *testing.T) {
	l := &enginetest.Launcher{}
	svcs := service.New(l, testConfig(t))

	var out bytes.Buffer
	err := execute(context.Background(), &out, svcs, func(ctx context.Context, s *service.Services) (any, error) {
		return s.InstagramPost.Scrape(ctx, "")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.ErrCodeInvalidInput)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, "Missing reel_url parameter", body.Error)
}

func TestFlagsOverrideConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"profile", "x", "--renderer", "http", "--attempts", "4", "--snapshot-dir", "/tmp/snaps"})

	profile, _, err := root.Find([]string{"profile"})
	require.NoError(t, err)
	require.NoError(t, profile.ParseFlags([]string{"--renderer", "http", "--attempts", "4", "--snapshot-dir", "/tmp/snaps"}))

	f := cliFlags{renderer: "http", attempts: 4, snapshotDir: "/tmp/snaps"}
	cfg := config.Load()
	f.apply(profile, cfg)

	assert.Equal(t, "http", cfg.Browser.Renderer)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, "/tmp/snaps", cfg.Snapshot.Dir)
	assert.Equal(t, 2*time.Second, cfg.Retry.Delay, "unset flags keep the configured value")
}
