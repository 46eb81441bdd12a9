package observability

import "time"

// ObserveTask wraps one background task execution. The runner has already
// responded to the client by the time fn runs, so the error is recorded and
// returned for logging only.
func (p *Prom) ObserveTask(taskType string, fn func() error) error {
	p.TasksInFlight.Inc()
	defer p.TasksInFlight.Dec()

	start := time.Now()
	err := fn()

	result := "done"

	if err != nil {
		result = "failed"
	}

	p.TaskDuration.WithLabelValues(taskType, result).Observe(time.Since(start).Seconds())
	p.TaskResults.WithLabelValues(taskType, result).Inc()

	return err
}

// CountTaskPanic records a task that died in a panic.
func (p *Prom) CountTaskPanic(taskType string) {
	p.TaskResults.WithLabelValues(taskType, "panic").Inc()
}
