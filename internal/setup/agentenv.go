package setup

import "slices"

// AgentEnv describes an agent coding environment that promptlog can hook into.
// Each implementation handles detection, installation and removal of the
// promptlog hooks for one tool.
type AgentEnv interface {
	// Name returns the short identifier used in CLI commands (e.g., "claude").
	Name() string

	// DisplayName returns the human-readable name (e.g., "Claude Code").
	DisplayName() string

	// Detect checks whether the hooks are installed at any scope.
	// Returns the settings path, scope ("project"/"global"), and whether installed.
	Detect() (path, scope string, installed bool)

	// Install adds the hooks. If project is true, installs to project-local
	// settings; otherwise global.
	Install(project bool) (path string, err error)

	// Remove removes the hooks from the chosen scope.
	Remove(project bool) error

	// Check returns the settings path and installed state for one scope.
	Check(project bool) (path, scope string, installed bool, err error)
}

// registry holds all known agent environments, keyed by name.
var registry = map[string]AgentEnv{}

// RegisterAgentEnv registers an agent environment implementation.
func RegisterAgentEnv(env AgentEnv) {
	registry[env.Name()] = env
}

// GetAgentEnv returns a registered agent environment by name, or nil if not found.
func GetAgentEnv(name string) AgentEnv {
	return registry[name]
}

// AllAgentEnvs returns all registered agent environments in a stable order.
func AllAgentEnvs() []AgentEnv {
	order := []string{"claude"}
	var result []AgentEnv
	for _, name := range order {
		if env, ok := registry[name]; ok {
			result = append(result, env)
		}
	}
	var rest []string
	for name := range registry {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		result = append(result, registry[name])
	}
	return result
}

// DetectedAgentEnvs returns agent environments that have the hooks installed.
func DetectedAgentEnvs() []AgentEnv {
	var detected []AgentEnv
	for _, env := range AllAgentEnvs() {
		if _, _, installed := env.Detect(); installed {
			detected = append(detected, env)
		}
	}
	return detected
}
