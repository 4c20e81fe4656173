package gasoptd

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newBufconnClient(t *testing.T) (*OptimizerServiceClient, *RunStore) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	store := NewRunStore()
	exec := NewRunExecutor(store)

	srv := grpc.NewServer()
	RegisterOptimizerServiceServer(srv, NewOptimizerGRPCServer(store, exec))
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		exec.Wait()
	})
	return NewOptimizerServiceClient(conn), store
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func runStatus(s *structpb.Struct) string {
	return s.GetFields()["run"].GetStructValue().GetFields()["status"].GetStringValue()
}

func TestGRPCRunLifecycle(t *testing.T) {
	client, _ := newBufconnClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := client.CreateRun(ctx, mustStruct(t, map[string]any{
		"run_id":      "grpc-1",
		"config_yaml": quickConfig,
	}))
	if err != nil {
		t.Fatalf("CreateRun error: %v", err)
	}
	if got := runStatus(created); got != string(RunStatusPending) {
		t.Fatalf("expected PENDING, got %q", got)
	}

	started, err := client.StartRun(ctx, "grpc-1")
	if err != nil {
		t.Fatalf("StartRun error: %v", err)
	}
	if got := runStatus(started); got != string(RunStatusRunning) {
		t.Fatalf("expected RUNNING, got %q", got)
	}

	var rec *structpb.Struct
	for {
		rec, err = client.GetRun(ctx, "grpc-1")
		if err != nil {
			t.Fatalf("GetRun error: %v", err)
		}
		if runStatus(rec) == string(RunStatusCompleted) {
			break
		}
		if ctx.Err() != nil {
			t.Fatalf("run did not complete, last status %q", runStatus(rec))
		}
		time.Sleep(10 * time.Millisecond)
	}

	result := rec.GetFields()["result"].GetStructValue()
	if result == nil {
		t.Fatal("expected result on completed run")
	}
	if seed := result.GetFields()["seed"].GetNumberValue(); seed != 7 {
		t.Fatalf("expected seed 7, got %v", seed)
	}
	if result.GetFields()["user_operation"].GetStructValue() == nil {
		t.Fatal("expected user_operation in result")
	}

	list, err := client.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	if runs := list.GetFields()["runs"].GetListValue().GetValues(); len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestGRPCCreateWithStartAndStop(t *testing.T) {
	client, store := newBufconnClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := client.CreateRun(ctx, mustStruct(t, map[string]any{
		"run_id":      "grpc-endless",
		"config_yaml": endlessConfig,
		"start":       true,
	}))
	if err != nil {
		t.Fatalf("CreateRun error: %v", err)
	}
	if got := runStatus(created); got != string(RunStatusRunning) {
		t.Fatalf("expected RUNNING, got %q", got)
	}
	waitForProgress(t, store, "grpc-endless")

	stopped, err := client.StopRun(ctx, "grpc-endless")
	if err != nil {
		t.Fatalf("StopRun error: %v", err)
	}
	if got := runStatus(stopped); got != string(RunStatusCancelled) {
		t.Fatalf("expected CANCELLED, got %q", got)
	}
}

func TestGRPCErrorCodes(t *testing.T) {
	client, store := newBufconnClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := store.Create("dup", RunInput{}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create("finished", RunInput{}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetStatus("finished", RunStatusCompleted, ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"get missing", func() error { _, err := client.GetRun(ctx, "missing"); return err }, codes.NotFound},
		{"start missing", func() error { _, err := client.StartRun(ctx, "missing"); return err }, codes.NotFound},
		{"stop missing", func() error { _, err := client.StopRun(ctx, "missing"); return err }, codes.NotFound},
		{"get empty id", func() error { _, err := client.GetRun(ctx, ""); return err }, codes.InvalidArgument},
		{"start empty id", func() error { _, err := client.StartRun(ctx, ""); return err }, codes.InvalidArgument},
		{"bad config", func() error {
			_, err := client.CreateRun(ctx, mustStruct(t, map[string]any{"config_yaml": "algorithm: {population_size: 0}"}))
			return err
		}, codes.InvalidArgument},
		{"duplicate id", func() error {
			_, err := client.CreateRun(ctx, mustStruct(t, map[string]any{"run_id": "dup"}))
			return err
		}, codes.AlreadyExists},
		{"restart finished", func() error { _, err := client.StartRun(ctx, "finished"); return err }, codes.FailedPrecondition},
		{"stop finished", func() error { _, err := client.StopRun(ctx, "finished"); return err }, codes.FailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if got := status.Code(err); got != tt.want {
				t.Fatalf("expected code %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}
