package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestFatalErrorsUnwrap(t *testing.T) {
	initErr := NewFatalInitError("select physical device", ErrNoCapableDevice)
	if !errors.Is(initErr, ErrNoCapableDevice) {
		t.Fatalf("expected init error to wrap ErrNoCapableDevice, got %v", initErr)
	}
	if !IsFatal(initErr) {
		t.Fatal("init error should be fatal")
	}

	runErr := NewFatalRuntimeError("queue submit", fmt.Errorf("vkQueueSubmit: %w", ErrDeviceLost))
	if !errors.Is(runErr, ErrDeviceLost) {
		t.Fatalf("expected runtime error to wrap ErrDeviceLost, got %v", runErr)
	}
	var fr *FatalRuntimeError
	if !errors.As(runErr, &fr) || fr.Op != "queue submit" {
		t.Fatalf("unexpected runtime error %#v", runErr)
	}
}

func TestFatalErrorsAreNotDoubleWrapped(t *testing.T) {
	inner := NewFatalInitError("create device", ErrMissingExtension)
	outer := NewFatalInitError("initialize", inner)
	if outer != inner {
		t.Fatal("already fatal errors must be returned unchanged")
	}
}

func TestSurfaceStaleIsRecoverable(t *testing.T) {
	err := fmt.Errorf("acquire: %w", ErrSurfaceStale)
	if !IsSurfaceStale(err) {
		t.Fatal("expected stale surface")
	}
	if IsFatal(err) {
		t.Fatal("a stale surface is not fatal")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", DebugLevel, false},
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", DebugLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
