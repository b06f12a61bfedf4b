package buildinfo

import (
	"strings"
	"testing"
)

func TestStampedValues(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	Version, Commit = "v1.2.3", "abc123"
	defer func() { Version, Commit = oldVersion, oldCommit }()

	if got := UserAgent(); got != "stackquery/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	for _, want := range []string{"{{.Name}}", "v1.2.3", "abc123"} {
		if !strings.Contains(Template(), want) {
			t.Errorf("Template() = %q, missing %q", Template(), want)
		}
	}
}
