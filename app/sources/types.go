package sources

// Config describes one collector source: where its raw output lands
// and the defaults the normalizer applies to its records.
type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	// Input is the collector output file, relative to the data dir.
	Input   string `yaml:"input"`
	Enabled bool   `yaml:"enabled"`

	// City fills in records the collector left without one.
	City string `yaml:"city"`
}
