package browser

import (
	"errors"
	"testing"
)

func TestOpenRejectsNonHTTP(t *testing.T) {
	var launched []string
	start = func(name string, args ...string) error {
		launched = append(launched, args[len(args)-1])
		return nil
	}
	t.Cleanup(func() { start = defaultStart })

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com/post?id=1", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Open(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
	if len(launched) != 2 {
		t.Errorf("launched %v, want the two valid URLs", launched)
	}
}

func TestOpenReportsLaunchFailure(t *testing.T) {
	start = func(string, ...string) error { return errors.New("no display") }
	t.Cleanup(func() { start = defaultStart })

	if err := Open("https://example.com"); err == nil {
		t.Error("expected launch error")
	}
}

var defaultStart = start
