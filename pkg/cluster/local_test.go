package cluster

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/deploy"
	"github.com/planwheel/planwheel/pkg/plan"
)

func TestLocalDriverLaunchConfirmsRunning(t *testing.T) {
	d := NewLocalDriver(zerolog.Nop())

	taskID, err := d.LaunchTask(context.Background(), deploy.TaskSpec{Name: "node-0", Command: "./server"})
	if err != nil {
		t.Fatalf("failed to launch: %v", err)
	}

	update := <-d.Updates()
	if update.TaskID != taskID || update.State != plan.TaskStateRunning {
		t.Errorf("unexpected confirmation: %+v", update)
	}
}

func TestLocalDriverKillConfirmsKilled(t *testing.T) {
	d := NewLocalDriver(zerolog.Nop())

	if err := d.KillTask(context.Background(), "local-1"); err != nil {
		t.Fatalf("failed to kill: %v", err)
	}

	update := <-d.Updates()
	if update.TaskID != "local-1" || update.State != plan.TaskStateKilled {
		t.Errorf("unexpected confirmation: %+v", update)
	}
}

func TestLocalDriverStopRejectsLaunches(t *testing.T) {
	d := NewLocalDriver(zerolog.Nop())

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("failed to stop: %v", err)
	}
	if _, err := d.LaunchTask(context.Background(), deploy.TaskSpec{Name: "node-0"}); err == nil {
		t.Fatal("expected launch to fail after stop")
	}
}
