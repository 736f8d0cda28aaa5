package synthesis

// DefaultBudget is the default number of backend turns a session may consume.
const DefaultBudget = 6

// Config holds the loop's tunable behavior. AllowInvalidFinish is the
// explicit loose finish policy: when set, the finish tool succeeds even while
// required artifacts are invalid. The default is the strict policy.
type Config struct {
	Budget             int  `yaml:"budget"`
	AllowInvalidFinish bool `yaml:"allow_invalid_finish"`
}

// DefaultConfig returns a Config with the default iteration budget and the
// strict finish policy.
func DefaultConfig() Config {
	return Config{Budget: DefaultBudget}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Budget > 0 {
		c.Budget = source.Budget
	}
	if source.AllowInvalidFinish {
		c.AllowInvalidFinish = true
	}
}
