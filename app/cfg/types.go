package cfg

type Cfg struct {
	// Application configuration
	Port         string
	SourcesFile  string
	DefaultLimit int

	// Upstream fetch configuration
	FetchTimeout int // seconds
	FeedTimeout  int // seconds
	MaxFeeds     int

	// Transport cache configuration
	CachePath string
	CacheTTL  int // seconds

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
