package cfg

type Cfg struct {
	// Storage configuration
	DBPath  string
	DataDir string

	// Pipeline configuration
	SourcesDir       string
	LexiconFile      string
	WorkerCount      int
	CrossSourceDedup bool
	SkipNormalize    bool
	SkipConsolidate  bool
	SkipLoad         bool
	SkipGeocoding    bool

	// Geocoding configuration
	GeocoderURL    string
	GeocoderAPIKey string
	GeocodeRegion  string

	// Server configuration (serve mode)
	Serve             bool
	Port              string
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
