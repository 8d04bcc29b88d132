package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	TrimInterval      int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
