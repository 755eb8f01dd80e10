package report

import (
	"testing"
	"time"
)

func sampleReport() Report {
	pid, ppid := 111, 10
	status := 0
	return Report{
		Context: Context{
			Intercept: "wrapper",
			HostInfo:  map[string]string{"sysname": "Linux"},
		},
		Executions: []Execution{
			{
				Command: Command{
					Program:     "/usr/bin/gcc",
					Arguments:   []string{"gcc", "-c", "foo.c"},
					WorkingDir:  "/work",
					Environment: map[string]string{"PATH": "/usr/bin"},
				},
				Run: Run{
					Pid:  &pid,
					Ppid: &ppid,
					Events: []Event{
						{Type: EventStarted, At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
						{Type: EventStopped, At: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), Status: &status},
					},
				},
			},
		},
	}
}

func TestReportRoundTrip(t *testing.T) {
	r := sampleReport()

	data, err := Serialize(r)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if len(got.Executions) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(got.Executions))
	}
	if got.Executions[0].Command.Program != "/usr/bin/gcc" {
		t.Errorf("program mismatch: %q", got.Executions[0].Command.Program)
	}
	if !got.Executions[0].Run.Closed() {
		t.Errorf("expected run to be closed")
	}
}

func TestDeserializeMalformedFailsCleanly(t *testing.T) {
	_, err := Deserialize([]byte(`{"context":`))
	if err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestDeserializeRejectsMissingStart(t *testing.T) {
	data := []byte(`{"context":{"intercept":"x","host_info":{}},"executions":[
		{"command":{"program":"/bin/ls","arguments":["ls"],"working_dir":"/","environment":{}},
		 "run":{"events":[{"type":"stop","at":"2024-01-01T00:00:00Z","status":0}]}}
	]}`)
	if _, err := Deserialize(data); err == nil {
		t.Fatalf("expected error for run missing start event")
	}
}

func TestRunValidateStoppedMustBeLast(t *testing.T) {
	status := 0
	r := Run{Events: []Event{
		{Type: EventStarted, At: time.Now()},
		{Type: EventStopped, At: time.Now(), Status: &status},
		{Type: EventSignalled, At: time.Now()},
	}}
	if err := r.Validate(); err == nil {
		t.Fatalf("expected error when stop isn't the last event")
	}
}

func TestNewCommandValidation(t *testing.T) {
	if _, err := NewCommand("", []string{"a"}, "/", nil); err != ErrEmptyProgram {
		t.Errorf("expected ErrEmptyProgram, got %v", err)
	}
	if _, err := NewCommand("/bin/a", nil, "/", nil); err != ErrEmptyArguments {
		t.Errorf("expected ErrEmptyArguments, got %v", err)
	}
	cmd, err := NewCommand("/bin/a", []string{"a"}, "/", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Environment == nil {
		t.Errorf("expected non-nil environment map")
	}
}
