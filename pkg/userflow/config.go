package userflow

// Config holds flow settings loaded from the environment with config.Load.
type Config struct {
	StrictEvents bool   `env:"USERFLOW_STRICT_EVENTS" envDefault:"false"`
	MachineName  string `env:"USERFLOW_MACHINE_NAME" envDefault:"userflow"`
	// GraphFile is an optional YAML transition graph replacing DefaultGraph.
	GraphFile string `env:"USERFLOW_GRAPH_FILE"`
}

// Options turns cfg into flow options. The graph file, if any, is read once here,
// so the result can be reused for every flow.
func (cfg Config) Options() ([]Option, error) {
	opts := []Option{WithMachineName(cfg.MachineName)}
	if cfg.StrictEvents {
		opts = append(opts, WithStrictEvents())
	}
	if cfg.GraphFile != "" {
		g, err := LoadGraphFile(cfg.GraphFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithGraph(g))
	}
	return opts, nil
}

// NewFromConfig starts a flow configured by cfg. Options in opts are applied after
// the configured ones and win on conflict.
func NewFromConfig(cfg Config, subject Subject, opts ...Option) (*Flow, error) {
	base, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(subject, append(base, opts...)...)
}
