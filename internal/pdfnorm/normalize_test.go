package pdfnorm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"ballotforge/internal/services"
	"ballotforge/internal/testsupport"
)

func stubGhostscript(t *testing.T, mode string) *[][]string {
	t.Helper()
	var (
		mu       sync.Mutex
		captured [][]string
	)
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		mu.Lock()
		captured = append(captured, append([]string{name}, args...))
		mu.Unlock()
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "GS_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestNormalizeAllPassesThroughColourTemplates(t *testing.T) {
	captured := stubGhostscript(t, "gray")
	n := New(WithGrayscaleTemplates("NhBallot"))

	docs := [][]byte{[]byte("%PDF a"), []byte("%PDF b")}
	out, err := n.NormalizeAll(context.Background(), "VxDefaultBallot", docs)
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	if len(*captured) != 0 {
		t.Fatalf("ghostscript should not run, got %v", *captured)
	}
	for i := range docs {
		if string(out[i]) != string(docs[i]) {
			t.Fatalf("doc %d changed: %q", i, out[i])
		}
	}
}

func TestNormalizeAllConvertsGrayscaleTemplatesInOrder(t *testing.T) {
	captured := stubGhostscript(t, "gray")
	n := New(WithGrayscaleTemplates("NhBallot"), WithConcurrency(3), WithBinary("/usr/local/bin/gs"))

	var docs [][]byte
	for i := 0; i < 7; i++ {
		docs = append(docs, []byte(fmt.Sprintf("%%PDF %d", i)))
	}
	out, err := n.NormalizeAll(context.Background(), "nhballot", docs)
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	for i := range docs {
		if want := "GRAY:" + string(docs[i]); string(out[i]) != want {
			t.Fatalf("doc %d = %q, want %q", i, out[i], want)
		}
	}
	if len(*captured) != len(docs) {
		t.Fatalf("expected %d ghostscript runs, got %d", len(docs), len(*captured))
	}
	args := strings.Join((*captured)[0], " ")
	for _, flag := range []string{"/usr/local/bin/gs", "-sDEVICE=pdfwrite", "-sColorConversionStrategy=Gray", "-dSAFER"} {
		if !strings.Contains(args, flag) {
			t.Fatalf("expected %s in %q", flag, args)
		}
	}
}

func TestNormalizeAllReportsGhostscriptFailure(t *testing.T) {
	stubGhostscript(t, "failure")
	n := New(WithGrayscaleTemplates("NhBallot"))

	_, err := n.NormalizeAll(context.Background(), "NhBallot", [][]byte{[]byte("%PDF")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unrecoverable error") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGrayscale("MsBallot"))
	n := NewFromConfig(cfg)
	if !n.RequiresGrayscale("MsBallot") || n.RequiresGrayscale("NhBallot") {
		t.Fatal("grayscale templates not taken from config")
	}
	if n.binary != "gs" || n.concurrency != cfg.Export.Concurrency {
		t.Fatalf("unexpected normalizer %+v", n)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("GS_HELPER_MODE") {
	case "gray":
		input, _ := io.ReadAll(os.Stdin)
		fmt.Print("GRAY:" + string(input))
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Unrecoverable error, exit code 1")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
