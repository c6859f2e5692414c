package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/engine/enginetest"
	"github.com/use-agent/socialpulse/extract"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/retry"
	"github.com/use-agent/socialpulse/webhook"
)

const (
	profileHTML = `<html><head><meta property="og:description" content="1,234 Followers, 56 Following, 7 Posts - See Instagram photos and videos"></head></html>`
	reelHTML    = `<html><head><meta property="og:description" content="45.3K likes, 210 comments - user on June 6, 2025: &quot;hello&quot;"></head></html>`
	loginHTML   = `<html><head><title>Login • Instagram</title></head><body>log in</body></html>`
	tiktokHTML  = `<html><head><title>Mary Lou on TikTok</title></head><body>
<strong data-e2e="followers-count">1.2M</strong>
<strong data-e2e="following-count">80</strong>
<strong data-e2e="likes-count">20.5M</strong>
<h2 data-e2e="user-bio">hi<br>there</h2>
<a data-e2e="user-link" href="https://example.com/me">example.com/me</a>
</body></html>`
)

func testOptions(t *testing.T, l engine.Launcher) Options {
	t.Helper()
	return Options{
		Launcher:  l,
		Policy:    retry.Policy{MaxAttempts: 2, Delay: time.Millisecond},
		Snapshots: retry.NewSnapshotWriter(t.TempDir()),
	}
}

func assertEachSessionClosedOnce(t *testing.T, l *enginetest.Launcher) {
	t.Helper()
	for i, s := range l.Sessions() {
		assert.Equalf(t, 1, s.Closed(), "session %d close count", i)
	}
}

func TestInstagramProfile_Success(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: profileHTML}}}
	svc := NewInstagramProfile(testOptions(t, l), "")

	got, err := svc.Scrape(context.Background(), "sufitramp")
	require.NoError(t, err)

	assert.Equal(t, &models.ProfileResult{
		Identifier:   "sufitramp",
		Followers:    1234,
		Following:    56,
		PostsOrLikes: 7,
	}, got)
	assert.Equal(t, 1, l.Launches())
	assert.Equal(t, 1, l.Closes())
	assertEachSessionClosedOnce(t, l)
}

func TestInstagramProfile_URLTemplate(t *testing.T) {
	svc := NewInstagramProfile(Options{}, "https://ig.example/")
	assert.Equal(t, "https://ig.example/sufitramp/", svc.ProfileURL("sufitramp"))

	svc = NewInstagramProfile(Options{}, "")
	assert.Equal(t, "https://www.instagram.com/natgeo/", svc.ProfileURL("natgeo"))
}

func TestInstagramProfile_RetryReusesSession(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}, {HTML: profileHTML}}}
	svc := NewInstagramProfile(testOptions(t, l), "")

	got, err := svc.Scrape(context.Background(), "sufitramp")
	require.NoError(t, err)

	assert.EqualValues(t, 1234, got.Followers)
	assert.Equal(t, 2, l.Opens())
	assert.Equal(t, 1, l.Launches(), "the session is reused across attempts")
	assert.Equal(t, 1, l.Closes())
}

func TestInstagramProfile_FreshSessionPerRetry(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}, {HTML: profileHTML}}}
	opts := testOptions(t, l)
	opts.FreshSession = true
	svc := NewInstagramProfile(opts, "")

	_, err := svc.Scrape(context.Background(), "sufitramp")
	require.NoError(t, err)

	assert.Equal(t, 2, l.Launches())
	assert.Equal(t, 2, l.Closes())
	assertEachSessionClosedOnce(t, l)
}

func TestInstagramProfile_ExhaustedWritesSnapshot(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}}}
	opts := testOptions(t, l)
	svc := NewInstagramProfile(opts, "")

	got, err := svc.Scrape(context.Background(), "sufitramp")
	require.Error(t, err)
	assert.Nil(t, got)

	var se *models.ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.ErrCodeExhausted, se.Code)
	assert.True(t, errors.Is(err, extract.ErrNotFound))

	wantPath := filepath.Join(opts.Snapshots.Dir(), "page_content_sufitramp.html")
	assert.Equal(t, wantPath, se.SnapshotPath)
	assert.Equal(t, "Failed to extract data for sufitramp. Check "+wantPath+".", se.Message)

	data, rerr := os.ReadFile(wantPath)
	require.NoError(t, rerr)
	assert.Equal(t, loginHTML, string(data))

	assert.Equal(t, 2, l.Opens())
	assert.Equal(t, 1, l.Closes())
}

func TestInstagramProfile_EmptyUsername(t *testing.T) {
	l := &enginetest.Launcher{}
	svc := NewInstagramProfile(testOptions(t, l), "")

	for _, in := range []string{"", "   "} {
		_, err := svc.Scrape(context.Background(), in)
		assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
		assert.Equal(t, "Missing username parameter", models.MessageOf(err))
	}
	assert.Zero(t, l.Launches())
}

func TestInstagramProfile_LaunchFailure(t *testing.T) {
	crash := models.NewScrapeError(models.ErrCodeBrowserCrash, "chromium missing", nil)
	l := &enginetest.Launcher{LaunchErr: crash}
	svc := NewInstagramProfile(testOptions(t, l), "")

	_, err := svc.Scrape(context.Background(), "sufitramp")
	assert.ErrorIs(t, err, crash)
	assert.Equal(t, 1, l.Launches())
	assert.Zero(t, l.Closes())
}

func TestInstagramProfile_TransientOpenErrorThenSuccess(t *testing.T) {
	timeout := models.NewScrapeError(models.ErrCodeTimeout, "network idle", context.DeadlineExceeded)
	l := &enginetest.Launcher{Steps: []enginetest.Step{{Err: timeout}, {HTML: profileHTML}}}
	svc := NewInstagramProfile(testOptions(t, l), "")

	got, err := svc.Scrape(context.Background(), "sufitramp")
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.PostsOrLikes)
	assert.Equal(t, 1, l.Closes())
}

func TestInstagramProfile_CancelledContextStillCloses(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: profileHTML}}}
	svc := NewInstagramProfile(testOptions(t, l), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Scrape(ctx, "sufitramp")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, l.Closes())
	assertEachSessionClosedOnce(t, l)

	entries, _ := os.ReadDir(svc.opts.Snapshots.Dir())
	assert.Empty(t, entries)
}

type panicExtractor struct{}

func (panicExtractor) Extract(*engine.Page) (*extract.Fields, error) {
	panic("boom")
}

func TestInstagramProfile_PanicStillCloses(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: profileHTML}}}
	svc := NewInstagramProfile(testOptions(t, l), "")
	svc.extractor = panicExtractor{}

	assert.Panics(t, func() {
		_, _ = svc.Scrape(context.Background(), "sufitramp")
	})
	assert.Equal(t, 1, l.Closes())
	assertEachSessionClosedOnce(t, l)
}

func TestInstagramPost_Success(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: reelHTML}}}
	svc := NewInstagramPost(testOptions(t, l))

	const reel = "https://www.instagram.com/reel/C7xyz/"
	got, err := svc.Scrape(context.Background(), reel)
	require.NoError(t, err)

	assert.Equal(t, &models.PostResult{
		SourceURL:  reel,
		Likes:      45300,
		Comments:   210,
		UploadDate: "2025-06-06",
	}, got)
	assert.Equal(t, 1, l.Closes())
}

func TestInstagramPost_Exhausted(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}}}
	opts := testOptions(t, l)
	svc := NewInstagramPost(opts)

	const reel = "https://www.instagram.com/reel/C7xyz/"
	_, err := svc.Scrape(context.Background(), reel)

	wantPath := filepath.Join(opts.Snapshots.Dir(), "page_content_reel.html")
	assert.Equal(t, "Failed to extract reel data for "+reel+". Check "+wantPath+".", models.MessageOf(err))
	assert.FileExists(t, wantPath)
}

func TestInstagramPost_EmptyURL(t *testing.T) {
	l := &enginetest.Launcher{}
	_, err := NewInstagramPost(testOptions(t, l)).Scrape(context.Background(), "")

	assert.Equal(t, "Missing reel_url parameter", models.MessageOf(err))
	assert.Zero(t, l.Launches())
}

func TestTikTokProfile_Success(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: tiktokHTML}}}
	svc := NewTikTokProfile(testOptions(t, l), "", []string{" on TikTok", " | TikTok"})

	got, err := svc.Scrape(context.Background(), "@marylou")
	require.NoError(t, err)

	assert.Equal(t, &models.ProfileResult{
		Identifier:   "marylou",
		Followers:    1_200_000,
		Following:    80,
		PostsOrLikes: 20_500_000,
		Bio:          "hi there",
		ExternalLink: "https://example.com/me",
		DisplayName:  "Mary Lou",
	}, got)
	assert.Equal(t, 1, l.Closes())
}

func TestTikTokProfile_URLTemplate(t *testing.T) {
	svc := NewTikTokProfile(Options{}, "", nil)
	assert.Equal(t, "https://www.tiktok.com/@marylou", svc.ProfileURL("marylou"))
}

func TestTikTokProfile_ExhaustedSnapshotName(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: "<html><body>captcha</body></html>"}}}
	opts := testOptions(t, l)
	svc := NewTikTokProfile(opts, "", nil)

	_, err := svc.Scrape(context.Background(), "marylou")
	assert.Equal(t, models.ErrCodeExhausted, models.CodeOf(err))
	assert.FileExists(t, filepath.Join(opts.Snapshots.Dir(), "tiktok_page_marylou.html"))
}

func TestTikTokProfile_BareAtSign(t *testing.T) {
	l := &enginetest.Launcher{}
	_, err := NewTikTokProfile(testOptions(t, l), "", nil).Scrape(context.Background(), "@")
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
	assert.Zero(t, l.Launches())
}

func TestRequestTimeoutBoundsCall(t *testing.T) {
	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}}}
	opts := testOptions(t, l)
	opts.Policy = retry.Policy{MaxAttempts: 10, Delay: time.Minute}
	opts.RequestTimeout = 30 * time.Millisecond
	svc := NewInstagramProfile(opts, "")

	start := time.Now()
	_, err := svc.Scrape(context.Background(), "slow")
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, models.ErrCodeExhausted, models.CodeOf(err))
	assert.Equal(t, 1, l.Closes())
}

func TestTrackedLauncherCountsActiveSessions(t *testing.T) {
	fake := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}}}
	tracked := engine.Track(fake)
	svc := NewInstagramProfile(testOptions(t, tracked), "")

	_, _ = svc.Scrape(context.Background(), "sufitramp")
	assert.Zero(t, tracked.Active())
	assert.Equal(t, "fake", tracked.Name())
	assert.Equal(t, 1, fake.Closes())
}

func TestExhaustionSendsAlert(t *testing.T) {
	events := make(chan webhook.Event, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev webhook.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		events <- ev
	}))
	defer hook.Close()

	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: loginHTML}}}
	opts := testOptions(t, l)
	opts.Alerts = webhook.New(hook.URL, "")
	svc := NewInstagramProfile(opts, "")

	_, err := svc.Scrape(context.Background(), "sufitramp")
	require.Error(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, webhook.EventExhausted, ev.Type)
		assert.Equal(t, "instagram_profile", ev.Kind)
		assert.Equal(t, "sufitramp", ev.Target)
		assert.Equal(t, 2, ev.Attempts)
		assert.Equal(t, models.MessageOf(err), ev.Message)
		assert.NotEmpty(t, ev.Snapshot)
	case <-time.After(5 * time.Second):
		t.Fatal("no alert delivered")
	}
}

func TestSuccessSendsNoAlert(t *testing.T) {
	var hits atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer hook.Close()

	l := &enginetest.Launcher{Steps: []enginetest.Step{{HTML: profileHTML}}}
	opts := testOptions(t, l)
	opts.Alerts = webhook.New(hook.URL, "")

	_, err := NewInstagramProfile(opts, "").Scrape(context.Background(), "sufitramp")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, hits.Load())
}
