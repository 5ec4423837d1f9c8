package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := CurrentLogLevel()
	defer SetLogLevel(originalLevel)

	SetLogLevel(LogLevelDebug)
	if got := CurrentLogLevel(); got != LogLevelDebug {
		t.Errorf("SetLogLevel() level = %v, want DEBUG", got)
	}

	SetLogLevel(LogLevelError)
	if got := CurrentLogLevel(); got != LogLevelError {
		t.Errorf("SetLogLevel() level = %v, want ERROR", got)
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := CurrentLogLevel()
	defer SetLogLevel(originalLevel)

	SetVerbose(true)
	if got := CurrentLogLevel(); got != LogLevelDebug {
		t.Errorf("SetVerbose(true) level = %v, want DEBUG", got)
	}

	SetVerbose(false)
	if got := CurrentLogLevel(); got != LogLevelInfo {
		t.Errorf("SetVerbose(false) level = %v, want INFO", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LogLevel
		wantErr bool
	}{
		{name: "error", input: "error", want: LogLevelError},
		{name: "warning alias", input: "WARNING", want: LogLevelWarn},
		{name: "empty defaults to info", input: "", want: LogLevelInfo},
		{name: "debug with spaces", input: " debug ", want: LogLevelDebug},
		{name: "unknown", input: "trace", want: LogLevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogFiltering(t *testing.T) {
	originalLevel := CurrentLogLevel()
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer func() {
		SetLogOutput(os.Stderr)
		SetLogLevel(originalLevel)
	}()

	SetLogLevel(LogLevelWarn)
	LogError("an error %d", 1)
	LogWarn("a warning")
	LogInfo("some info")
	LogDebug("some detail")

	output := buf.String()
	if !strings.Contains(output, "[ERROR] an error 1") {
		t.Errorf("output should contain the error, got: %q", output)
	}
	if !strings.Contains(output, "[WARN] a warning") {
		t.Errorf("output should contain the warning, got: %q", output)
	}
	if strings.Contains(output, "some info") || strings.Contains(output, "some detail") {
		t.Errorf("output should not contain messages below WARN, got: %q", output)
	}
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
	if got := LogLevel(9).String(); got != "LEVEL(9)" {
		t.Errorf("LogLevel(9).String() = %q, want LEVEL(9)", got)
	}
}
