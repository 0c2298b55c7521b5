package status_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/FAU-CDI/callgraphdb/internal/status"
)

func TestStatus_Nil(t *testing.T) {
	t.Parallel()

	var st *status.Status
	if status.NewStatus(nil) != nil {
		t.Error("NewStatus(nil) is not nil")
	}

	st.Log("ignored")
	st.LogError("ignored", errors.New("ignored"))
	st.SetCT(1, 2)
	st.End()

	called := false
	if err := st.DoStage(status.StageAssemble, func() error {
		called = true
		return nil
	}); err != nil || !called {
		t.Errorf("DoStage() = %v, called = %v", err, called)
	}
	if st.Stages() != nil {
		t.Error("Stages() of nil status is not nil")
	}
}

func TestStatus_DoStage(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	st := status.NewStatusLevel(&buffer, slog.LevelDebug)

	if err := st.DoStage(status.StagePermute, func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	errStage := errors.New("stage failed")
	if err := st.DoStage(status.StageStorePut, func() error { return errStage }); !errors.Is(err, errStage) {
		t.Fatalf("DoStage() error = %v, want %v", err, errStage)
	}

	stages := st.Stages()
	if len(stages) != 2 || stages[0].Stage != status.StagePermute || stages[1].Stage != status.StageStorePut {
		t.Fatalf("Stages() = %v", stages)
	}
	for _, stage := range stages {
		if stage.End.Time.Before(stage.Start.Time) {
			t.Errorf("stage %q ended before it started", stage.Stage)
		}
	}

	output := buffer.String()
	for _, want := range []string{"stage=permute", "stage=store/put", "FAILED failed stage", "stage failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output does not contain %q:\n%s", want, output)
		}
	}
}

func TestStatus_Level(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	st := status.NewStatus(&buffer)

	st.LogDebug("hidden")
	st.Log("shown")

	if strings.Contains(buffer.String(), "hidden") {
		t.Error("NewStatus() logged a debug message")
	}
	if !strings.Contains(buffer.String(), "shown") {
		t.Error("NewStatus() did not log an info message")
	}
}

func TestStatus_SetCT(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	st := status.NewStatus(&buffer)

	if err := st.DoStage(status.StageAssemble, func() error {
		st.SetCT(1, 10)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buffer.String(), "assemble:  1/10") {
		t.Errorf("SetCT() did not report progress:\n%q", buffer.String())
	}

	stages := st.Stages()
	if len(stages) != 1 || stages[0].Current != 1 || stages[0].Total != 10 {
		t.Errorf("Stages() = %v", stages)
	}
}
