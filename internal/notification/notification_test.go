package notification

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	cases := map[string]string{
		"+919876543210": "*********3210",
		"123":           "123",
		"":              "",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoggerNotifierMasksDestination(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := n.Send(context.Background(), Message{Kind: KindSignup, Destination: "+919876543210", Body: "welcome"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "9876543210") {
		t.Fatalf("destination leaked into log: %s", out)
	}
	if !strings.Contains(out, `"kind":"signup"`) {
		t.Fatalf("expected kind in log: %s", out)
	}
}

func TestNilLoggerNotifierIsNoop(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{Kind: KindLogin}); err != nil {
		t.Fatalf("send: %v", err)
	}
}
