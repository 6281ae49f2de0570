package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantlabs/voyant/api/schemas"
)

func contentPageState() schemas.PageState {
	return schemas.PageState{
		URL:      "https://site.example/",
		Blocking: schemas.BlockingClear,
		Buttons:  []schemas.Button{{Text: "Watch Now", Prominent: true}},
		HasVideo: true,
	}
}

// -- Fatal paths --

func TestCrawlSite_InvalidURL(t *testing.T) {
	launcher := &fakeLauncher{session: &fakeSession{}}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	for _, raw := range []string{"ftp://site.example", "://missing-scheme", "https://"} {
		result, err := orch.CrawlSite(context.Background(), raw)
		require.Error(t, err, raw)
		assert.Nil(t, result)

		var invalidErr *InvalidURLError
		assert.ErrorAs(t, err, &invalidErr, raw)
	}
	assert.Zero(t, launcher.acquires, "no browser is launched for an invalid URL")
}

func TestCrawlSite_LaunchFailure(t *testing.T) {
	launchErr := errors.New("chrome exploded")
	launcher := &fakeLauncher{err: launchErr}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, launchErr)
	assert.Zero(t, launcher.releases, "nothing to release when acquire failed")
}

func TestCrawlSite_NavigationRetriesThenFails(t *testing.T) {
	navErr := errors.New("net::ERR_CONNECTION_REFUSED")
	session := &fakeSession{navErrs: []error{navErr, navErr, navErr}}
	launcher := &fakeLauncher{session: session}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.Error(t, err)
	assert.Nil(t, result)

	var nErr *NavigationError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "https://site.example", nErr.URL)
	assert.ErrorIs(t, err, navErr, "the root cause survives both wrappers")

	assert.Equal(t, 3, session.navCalls, "navigation gets exactly the configured attempts")
	assert.Equal(t, 1, launcher.releases, "the browser is torn down on the failure path")
}

func TestCrawlSite_NavigationRecoversOnRetry(t *testing.T) {
	session := &fakeSession{
		navErrs:      []error{errors.New("flaky handshake")},
		observations: []schemas.PageState{contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, session.navCalls)
}

// -- Completed crawls --

func TestCrawlSite_HappyPathAssemblesResult(t *testing.T) {
	session := &fakeSession{
		observations: []schemas.PageState{contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
		seo:          schemas.SEOData{Title: "Site", Description: "desc"},
		pageSize:     12345,
		favicon:      "https://site.example/favicon.ico",
	}
	launcher := &fakeLauncher{session: session}
	advisor := &fakeAdvisor{plan: schemas.ScrollPlan{ShouldScroll: false}}
	orch := newTestOrchestrator(t, launcher, advisor)

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "https://site.example", result.URL)
	assert.Equal(t, "Site", result.SEO.Title)
	assert.Equal(t, int64(12345), result.Performance.PageSize)
	assert.Equal(t, "https://site.example/favicon.ico", result.FaviconURL)
	assert.Contains(t, session.clicked, "Watch Now")
	assert.Len(t, result.Screenshots, 2, "baseline plus the content page capture")
	assert.Equal(t, 1, launcher.releases, "the browser is always released")
}

func TestCrawlSite_LoadTimeComesFromSession(t *testing.T) {
	session := &fakeSession{
		observations: []schemas.PageState{contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
		loadTime:     123 * time.Millisecond,
	}
	launcher := &fakeLauncher{session: session}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	assert.Equal(t, 123*time.Millisecond, result.Performance.LoadTime,
		"the session's navigation measurement is the one reported")
}

func TestCrawlSite_ScreenshotBudgetIsHardCap(t *testing.T) {
	session := &fakeSession{
		observations: []schemas.PageState{contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	// Deep scroll would capture 6 more frames; the budget must stop it.
	advisor := &fakeAdvisor{plan: schemas.ScrollPlan{ShouldScroll: true, Depth: schemas.ScrollDeep}}
	orch := newTestOrchestrator(t, launcher, advisor)

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	assert.Len(t, result.Screenshots, 5)
	assert.Equal(t, 6, session.scrolledFor, "scrolling itself is not cut short, captures are")
}

func TestCrawlSite_BlockerDismissedBeforeDiscovery(t *testing.T) {
	gated := schemas.PageState{
		URL:      "https://site.example/",
		Blocking: schemas.BlockingAgeGate,
		Buttons:  []schemas.Button{{Text: "I am over 18", Prominent: true}},
	}
	session := &fakeSession{
		observations: []schemas.PageState{gated, contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, session.clicked, "I am over 18")
}

func TestCrawlSite_UndismissableBlockerDegrades(t *testing.T) {
	gated := schemas.PageState{
		URL:      "https://site.example/",
		Blocking: schemas.BlockingLoginWall,
		Buttons:  []schemas.Button{{Text: "Sign in"}},
	}
	session := &fakeSession{
		observations: []schemas.PageState{gated},
		clickOK:      false,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	orch := newTestOrchestrator(t, launcher, &fakeAdvisor{})

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err, "a stuck blocker degrades the crawl, it does not fail it")
	require.NotNil(t, result)
	assert.Equal(t, 1, launcher.releases)
}

// -- Content classification after the click --

func TestCrawlSite_VisionSecondOpinionKeepsScreenshot(t *testing.T) {
	// DOM says not content, the vision check disagrees: the capture stays.
	state := schemas.PageState{
		URL:      "https://site.example/",
		Blocking: schemas.BlockingClear,
		Buttons:  []schemas.Button{{Text: "Start here", Prominent: true}},
	}
	session := &fakeSession{
		observations: []schemas.PageState{state},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	advisor := &fakeAdvisor{isContent: true, plan: schemas.ScrollPlan{ShouldScroll: false}}
	orch := newTestOrchestrator(t, launcher, advisor)

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	assert.Len(t, result.Screenshots, 2)
	assert.Equal(t, 1, advisor.contentCalls)
}

func TestCrawlSite_NonContentClickDropsScreenshot(t *testing.T) {
	state := schemas.PageState{
		URL:      "https://site.example/",
		Blocking: schemas.BlockingClear,
		Buttons:  []schemas.Button{{Text: "Start here", Prominent: true}},
	}
	session := &fakeSession{
		observations: []schemas.PageState{state},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	advisor := &fakeAdvisor{isContent: false, plan: schemas.ScrollPlan{ShouldScroll: false}}
	orch := newTestOrchestrator(t, launcher, advisor)

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	assert.Len(t, result.Screenshots, 1, "only the baseline survives a dead-end click")
}

// -- Exploration --

func TestCrawlSite_ScrollDepthMapsToSteps(t *testing.T) {
	tests := []struct {
		depth schemas.ScrollDepth
		steps int
	}{
		{schemas.ScrollShallow, 2},
		{schemas.ScrollMedium, 4},
		{schemas.ScrollDeep, 6},
		{schemas.ScrollDepth("bogus"), 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.depth), func(t *testing.T) {
			assert.Equal(t, tt.steps, scrollStepsFor(tt.depth))
		})
	}
}

func TestCrawlSite_AdvisorDeclinesScroll(t *testing.T) {
	session := &fakeSession{
		observations: []schemas.PageState{contentPageState()},
		clickOK:      true,
		screenshot:   []byte("png"),
	}
	launcher := &fakeLauncher{session: session}
	advisor := &fakeAdvisor{plan: schemas.ScrollPlan{ShouldScroll: false, Depth: schemas.ScrollDeep}}
	orch := newTestOrchestrator(t, launcher, advisor)

	result, err := orch.CrawlSite(context.Background(), "https://site.example")
	require.NoError(t, err)
	assert.Zero(t, session.scrolledFor)
	assert.Len(t, result.Screenshots, 2)
}
