package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/telltaleatheist/clippy-sub006/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "analysis", "identify", "chunk 3 failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analysis", "identify", "chunk 3 failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"configuration", services.Wrap(services.ErrConfiguration, "prompts", "build", "no categories", nil), true},
		{"unavailable", services.Wrap(services.ErrUnavailable, "preflight", "probe", "missing model", nil), true},
		{"transient", services.Wrap(services.ErrTransient, "analysis", "identify", "empty", nil), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsCanceled(t *testing.T) {
	if !services.IsCanceled(fmt.Errorf("call: %w", context.Canceled)) {
		t.Fatal("expected wrapped context.Canceled to be detected")
	}
	if !services.IsCanceled(services.Wrap(services.ErrCanceled, "analysis", "", "", nil)) {
		t.Fatal("expected ErrCanceled to be detected")
	}
	if services.IsCanceled(errors.New("other")) {
		t.Fatal("unexpected cancellation for plain error")
	}
}
