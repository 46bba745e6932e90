package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, closeLog, err := InitLogger(dir, true)
	if err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	logger.Debug("hello", "k", "v")
	if err := closeLog(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "interviewcoach.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected debug line in log file")
	}
}

func TestInitTelemetry(t *testing.T) {
	tracer, meter, cleanup, err := InitTelemetry(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("InitTelemetry failed: %v", err)
	}
	defer cleanup()

	if tracer == nil || meter == nil {
		t.Fatalf("expected tracer and meter")
	}
	_, span := tracer.Start(context.Background(), "test")
	span.End()
}
