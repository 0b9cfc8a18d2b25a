package ports

// SchedulerService runs tasks periodically. Intervals are in seconds.
type SchedulerService interface {
	Start()
	Stop()

	ScheduleTask(interval int64, immediate bool, task func()) error
}
