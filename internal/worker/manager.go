// Package worker hosts the Temporal worker that executes approval
// workflows and their activities.
package worker

import (
	"fmt"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/workflow"
)

// Manager owns the lifecycle of the approval task-queue worker
type Manager struct {
	worker    sdkworker.Worker
	taskQueue string
	logger    *zap.Logger
}

// NewManager creates a worker on the given task queue and registers the
// approval workflow and its activities.
func NewManager(c client.Client, taskQueue string, activities *workflow.Activities, logger *zap.Logger) *Manager {
	w := sdkworker.New(c, taskQueue, sdkworker.Options{})

	w.RegisterWorkflow(workflow.DocumentApproval)
	w.RegisterActivity(activities)

	return &Manager{
		worker:    w,
		taskQueue: taskQueue,
		logger:    logger,
	}
}

// Start launches the worker in the background
func (m *Manager) Start() error {
	if err := m.worker.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	m.logger.Info("Temporal worker started", zap.String("task_queue", m.taskQueue))
	return nil
}

// Stop shuts the worker down and waits for in-flight tasks
func (m *Manager) Stop() {
	m.worker.Stop()
	m.logger.Info("Temporal worker stopped", zap.String("task_queue", m.taskQueue))
}
