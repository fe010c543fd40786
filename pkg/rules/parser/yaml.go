package parser

// yamlDocument is the intermediate structure a rule file decodes into
// before transformation to AST.
type yamlDocument struct {
	Ruleset    string           `yaml:"ruleset"`
	Version    int              `yaml:"version"`
	Rules      []yamlRule       `yaml:"rules"`
	Invariants []map[string]any `yaml:"invariants"`
}

// yamlRule is the intermediate rule structure.
type yamlRule struct {
	ID          string           `yaml:"id"`
	Description string           `yaml:"description"`
	Enabled     *bool            `yaml:"enabled"` // pointer to distinguish unset from false
	Priority    int              `yaml:"priority"`
	Tags        []string         `yaml:"tags"`
	Requires    []map[string]any `yaml:"requires"`
	Conflicts   []map[string]any `yaml:"conflicts"`
	Effects     []map[string]any `yaml:"effects"`
	ReadSet     []string         `yaml:"read_set"`
	WriteSet    []string         `yaml:"write_set"`
}
