package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/query"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("query resolved", "status", query.StatusSuccess)

	for _, want := range []string{"query resolved", "status=success", "elapsed="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("done() output %q should contain %q", buf.String(), want)
		}
	}
}

func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.InfoLevel))

	queryLogger(ctx, query.NewKey("github.repo", "a/b")).Info("fetched")
	if got := buf.String(); !strings.Contains(got, "key=github.repo:a/b") {
		t.Errorf("queryLogger output %q should carry the key", got)
	}

	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}
}

func TestLogRetryHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.New(errors.ErrCodeNotFound, "missing"), ""},
		{"network", errors.New(errors.ErrCodeNetwork, "Network Error"), "looks temporary"},
		{"rate limited", errors.Wrap(errors.ErrCodeRateLimited, &errors.RateLimitedError{RetryAfter: 30}, "slow down"), "after=30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logRetryHint(newLogger(&buf, log.InfoLevel), tt.err)
			got := buf.String()
			if tt.want == "" && got != "" {
				t.Errorf("unexpected hint %q", got)
			}
			if tt.want != "" && !strings.Contains(got, tt.want) {
				t.Errorf("hint %q should contain %q", got, tt.want)
			}
		})
	}
}
