package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to hand work to the worker pool.
// Example usage:
//
//	scheduler := NewScheduler(configCache, deps, interval, trimInterval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewProcessFeedTask(name, feedConfig, deps))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
