package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type countingQueryHooks struct {
	NoopQueryHooks
	starts int
}

func (h *countingQueryHooks) OnFetchStart(context.Context, string, bool) { h.starts++ }

type testCacheHooks struct{ NoopCacheHooks }

func TestRegisterAndRestore(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Query().(NoopQueryHooks); !ok {
		t.Fatal("Query() should return NoopQueryHooks by default")
	}

	first := &countingQueryHooks{}
	restoreFirst := Register(Hooks{Query: first})
	if Query() != first {
		t.Error("Register should install query hooks")
	}

	cache := &testCacheHooks{}
	restoreCache := Register(Hooks{Cache: cache})
	if Query() != first {
		t.Error("nil Query field should leave the current hooks in place")
	}
	if Cache() != cache {
		t.Error("Register should install cache hooks")
	}

	restoreCache()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("restore should bring back the previous cache hooks")
	}
	restoreFirst()
	if _, ok := Query().(NoopQueryHooks); !ok {
		t.Error("restore should bring back NoopQueryHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should still be the default")
	}
}

func TestJoinQueryHooks(t *testing.T) {
	a, b := &countingQueryHooks{}, &countingQueryHooks{}

	if _, ok := JoinQueryHooks(NoopQueryHooks{}, nil).(NoopQueryHooks); !ok {
		t.Error("joining only no-ops should return NoopQueryHooks")
	}
	if JoinQueryHooks(NoopQueryHooks{}, a) != a {
		t.Error("joining a single hook should return it unchanged")
	}

	joined := JoinQueryHooks(a, b)
	joined.OnFetchStart(context.Background(), "github.repo:a/b", false)
	joined.OnFresh(context.Background(), "github.repo:a/b")
	if a.starts != 1 || b.starts != 1 {
		t.Errorf("starts = %d, %d; want 1, 1", a.starts, b.starts)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))
	ctx := context.Background()

	h.OnFetchStart(ctx, "github.repo:a/b", true)
	h.OnFetchComplete(ctx, "github.repo:a/b", time.Second, errors.New("boom"))
	h.OnDeduplicated(ctx, "fakestore.products:jewelery")
	h.OnCacheSet(ctx, "file", 128)
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/a/b", 200, time.Millisecond)

	got := buf.String()
	for _, want := range []string{
		"fetch started", "background=true",
		"fetch failed", "err=boom",
		"joined in-flight fetch", "key=fakestore.products:jewelery",
		"store write", "bytes=128",
		"http response", "status=200",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("log output missing %q:\n%s", want, got)
		}
	}

	hooks := h.Hooks()
	if hooks.Query != h || hooks.Cache != h || hooks.HTTP != h {
		t.Error("Hooks() should register h for every category")
	}
}

func TestLogHooksQuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel}))
	h.OnFetchStart(context.Background(), "github.repo:a/b", false)
	if buf.Len() != 0 {
		t.Errorf("debug events should be filtered at info level, got %q", buf.String())
	}
}
