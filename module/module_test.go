package module

import (
	"strings"
	"testing"

	"github.com/czx-lab/traeger/value"
)

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/path/to/module.so", value.NewMap())
	if err == nil {
		t.Fatal("expected an error for a nonexistent plugin path")
	}
	if !strings.Contains(err.Error(), "opening") {
		t.Fatalf("expected an 'opening' error, got %v", err)
	}
}
