package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bimmerbailey/grasp/internal/config"
)

func TestColorizeLine(t *testing.T) {
	tests := []struct {
		name          string
		level         config.LogLevel
		line          string
		expectColor   bool
		expectedColor string
	}{
		{"DEBUG level - gray", config.LevelDebug, "debug message", true, colorGray},
		{"INFO level - no color", config.LevelInfo, "info message", false, ""},
		{"WARN level - yellow", config.LevelWarn, "warning message", true, colorYellow},
		{"ERROR level - red", config.LevelError, "error message", true, colorRed},
		{"FATAL level - bold red", config.LevelFatal, "fatal message", true, colorBold + colorRed},
		{"UNKNOWN level - no color", config.LevelUnknown, "unknown message", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ColorizeLine(tt.level, tt.line)

			if tt.expectColor {
				if !strings.Contains(result, tt.expectedColor) {
					t.Errorf("Expected result to contain color code %q, got: %s", tt.expectedColor, result)
				}
				if !strings.Contains(result, colorReset) {
					t.Errorf("Expected result to contain reset code, got: %s", result)
				}
				if !strings.Contains(result, tt.line) {
					t.Errorf("Expected result to contain line %q, got: %s", tt.line, result)
				}
			} else if result != tt.line {
				t.Errorf("Expected line to be unchanged, got: %s", result)
			}
		})
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ColorMode
		wantErr bool
	}{
		{"auto", ColorAuto, false},
		{"", ColorAuto, false},
		{"ALWAYS", ColorAlways, false},
		{"never", ColorNever, false},
		{"sometimes", ColorAuto, true},
	}

	for _, tt := range tests {
		got, err := ParseColorMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColorMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseColorMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestShouldColorize(t *testing.T) {
	tests := []struct {
		name     string
		mode     ColorMode
		writer   any
		expected bool
	}{
		{"ColorAlways - any writer", ColorAlways, &bytes.Buffer{}, true},
		{"ColorNever - any writer", ColorNever, os.Stdout, false},
		{"ColorAuto - non-file writer", ColorAuto, &bytes.Buffer{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldColorize(tt.mode, tt.writer); got != tt.expected {
				t.Errorf("shouldColorize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShouldColorizeNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(ColorAuto, os.Stdout) {
		t.Error("expected NO_COLOR to disable auto color")
	}
	if !shouldColorize(ColorAlways, os.Stdout) {
		t.Error("expected ColorAlways to ignore NO_COLOR")
	}
}
