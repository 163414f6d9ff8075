package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestResolveLevel(t *testing.T) {
	if got := resolveLevel(true, "").Level(); got != zapcore.DebugLevel {
		t.Fatalf("debug mode default level want debug got %s", got)
	}
	if got := resolveLevel(false, "").Level(); got != zapcore.InfoLevel {
		t.Fatalf("release mode default level want info got %s", got)
	}
	if got := resolveLevel(false, "WARN").Level(); got != zapcore.WarnLevel {
		t.Fatalf("explicit level want warn got %s", got)
	}
	if got := resolveLevel(false, "verbose").Level(); got != zapcore.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %s", got)
	}
}

func TestNewReleaseRespectsLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "level.log", Level: "error"})
	log.Info("info-should-be-dropped")
	log.Error("error-should-be-written")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	if strings.Contains(string(content), "info-should-be-dropped") {
		t.Fatalf("info log should be filtered, got=%s", string(content))
	}
	if !strings.Contains(string(content), "error-should-be-written") {
		t.Fatalf("error log should be written, got=%s", string(content))
	}
}
