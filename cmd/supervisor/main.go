// Command supervisor is the process cmd/preload's shim re-execs
// through instead of the original program (spec.md §4.1 "rewrite").
// It resolves the environment overlay from the collector, spawns the
// real program with the merged environment, reports the execution's
// start/signal/stop lifecycle over ReporterService, and forwards signals
// to the child for the duration of the run, grounded on
// intercept-library/executable/source/Application.cc's flow.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/5c4lar/Bear/internal/envmerge"
	"github.com/5c4lar/Bear/internal/report"
	"github.com/5c4lar/Bear/internal/rpcpb"
)

const jsonContentSubtype = "json"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "supervisor:", err)
		os.Exit(1)
	}
}

type config struct {
	destination string
	verbose     bool
	program     string
	argv        []string
}

func parseArgs(args []string) (config, error) {
	fs := flag.NewFlagSet("supervisor", flag.ContinueOnError)
	destination := fs.String("destination", "", "collector gRPC address")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	execute := fs.String("execute", "", "resolved path of the program to run")

	dashdash := len(args)
	for i, a := range args {
		if a == "--" {
			dashdash = i
			break
		}
	}
	if err := fs.Parse(args[:dashdash]); err != nil {
		return config{}, err
	}
	if *destination == "" {
		return config{}, fmt.Errorf("--destination is required")
	}
	if *execute == "" {
		return config{}, fmt.Errorf("--execute is required")
	}

	var tail []string
	if dashdash < len(args) {
		tail = args[dashdash+1:]
	}
	return config{
		destination: *destination,
		verbose:     *verbose,
		program:     *execute,
		argv:        tail,
	}, nil
}

func run() error {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	ctx := context.Background()

	conn, err := grpc.NewClient(cfg.destination,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonContentSubtype)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return fmt.Errorf("dial collector: %w", err)
	}
	defer conn.Close()

	baseEnv := envmerge.FromList(os.Environ())

	sessionClient := rpcpb.NewSessionServiceClient(conn)
	overlayResp, err := sessionClient.GetEnvironmentUpdate(ctx, &rpcpb.EnvironmentRequest{Environment: baseEnv})
	if err != nil {
		return fmt.Errorf("get environment overlay: %w", err)
	}
	childEnv := envmerge.Union(baseEnv, overlayResp.Environment)

	workingDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	fullArgv := append([]string{cfg.program}, cfg.argv...)
	cmd, err := report.NewCommand(cfg.program, fullArgv, workingDir, childEnv)
	if err != nil {
		return fmt.Errorf("build command record: %w", err)
	}

	reporterClient := rpcpb.NewReporterServiceClient(conn)
	stream, err := reporterClient.Report(ctx)
	if err != nil {
		return fmt.Errorf("open report stream: %w", err)
	}

	child := exec.Command(cfg.program, cfg.argv...)
	child.Dir = workingDir
	child.Env = envmerge.ToList(childEnv)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Start(); err != nil {
		return fmt.Errorf("start child: %w", err)
	}
	pid := int32(child.Process.Pid)

	if err := stream.Send(&rpcpb.EventRequest{
		Pid:     pid,
		Command: &cmd,
		Event:   report.Event{Type: report.EventStarted, At: time.Now()},
	}); err != nil {
		fmt.Fprintln(os.Stderr, "supervisor: report start event:", err)
	}

	sigCh := make(chan os.Signal, 16)
	signal.Notify(sigCh)
	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	var waitErr error
forward:
	for {
		select {
		case sig := <-sigCh:
			if isChildTerminationNotice(sig) {
				continue
			}
			child.Process.Signal(sig)
			if s, ok := sig.(syscall.Signal); ok {
				n := int(s)
				ev := report.Event{Type: report.EventSignalled, At: time.Now(), Signal: &n}
				if err := stream.Send(&rpcpb.EventRequest{Pid: pid, Event: ev}); err != nil {
					fmt.Fprintln(os.Stderr, "supervisor: report signal event:", err)
				}
			}
		case waitErr = <-done:
			signal.Stop(sigCh)
			break forward
		}
	}

	status, signaled := exitStatus(waitErr)
	stopEvent := report.Event{Type: report.EventStopped, At: time.Now()}
	if signaled != nil {
		ev := report.Event{Type: report.EventSignalled, At: stopEvent.At, Signal: signaled}
		if err := stream.Send(&rpcpb.EventRequest{Pid: pid, Event: ev}); err != nil {
			fmt.Fprintln(os.Stderr, "supervisor: report signal event:", err)
		}
	} else {
		stopEvent.Status = status
	}
	if err := stream.Send(&rpcpb.EventRequest{Pid: pid, Event: stopEvent}); err != nil {
		fmt.Fprintln(os.Stderr, "supervisor: report stop event:", err)
	}
	if _, err := stream.CloseAndRecv(); err != nil {
		fmt.Fprintln(os.Stderr, "supervisor: close report stream:", err)
	}

	if waitErr != nil {
		if status != nil {
			os.Exit(*status)
		}
		return waitErr
	}
	return nil
}

// isChildTerminationNotice reports signals the supervisor itself
// should not blindly forward: SIGCHLD is noise from the child's own
// lifecycle, not something the child itself needs to see.
func isChildTerminationNotice(sig os.Signal) bool {
	return sig == syscall.SIGCHLD
}

func exitStatus(err error) (status *int, signal *int) {
	if err == nil {
		code := 0
		return &code, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				s := int(ws.Signal())
				return nil, &s
			}
			code := ws.ExitStatus()
			return &code, nil
		}
		code := exitErr.ExitCode()
		return &code, nil
	}
	code := -1
	return &code, nil
}
