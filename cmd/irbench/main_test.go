package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, want := range []string{"prepare", "fix-qrels", "bm25", "dense", "rerank", "evaluate", "plot", "pipeline", "version"} {
		assert.Contains(t, got, want)
	}
}

func TestFixQrelsCmd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "qrels.tsv")
	require.NoError(t, os.WriteFile(path, []byte("query-id\tcorpus-id\tscore\nq_0\tdoc_0\t1\n"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"--log-level", "error", "fix-qrels", path})
	root.SetOut(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "q_0 0 doc_0 1\n", string(data))
}

func TestPipelineCmd_UnknownStage(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetArgs([]string{"pipeline", "--from", "train"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage train")
}

// TestInterruptHelper is re-executed as a child by TestInterruptContext.
func TestInterruptHelper(t *testing.T) {
	if os.Getenv("IRBENCH_INTERRUPT_HELPER") != "1" {
		t.Skip("helper process")
	}
	ctx, stop := interruptContext(context.Background())
	defer stop()

	fmt.Println("ready")
	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	fmt.Println("cancelled")
	time.Sleep(30 * time.Second)
	os.Exit(0)
}

func TestInterruptContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("os.Interrupt cannot be sent on windows")
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestInterruptHelper$")
	cmd.Env = append(os.Environ(), "IRBENCH_INTERRUPT_HELPER=1")
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	lines := bufio.NewScanner(stdout)
	require.True(t, lines.Scan())
	require.Equal(t, "ready", lines.Text())

	require.NoError(t, cmd.Process.Signal(os.Interrupt))
	require.True(t, lines.Scan())
	require.Equal(t, "cancelled", lines.Text(), "first interrupt cancels the context")

	start := time.Now()
	require.NoError(t, cmd.Process.Signal(os.Interrupt))
	err = cmd.Wait()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "second interrupt terminates the process")
	assert.Equal(t, -1, exitErr.ExitCode())
	assert.Less(t, time.Since(start), 10*time.Second)
}
