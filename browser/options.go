// Package browser runs the holdings page in a headless Chrome controlled
// through the DevTools protocol.
package browser

import "time"

// Options control how Chrome is launched.
type Options struct {
	// Headless runs Chrome without a window.
	Headless bool `yaml:"headless"`

	// Proxy is passed as --proxy-server, e.g. "socks5://127.0.0.1:9050".
	Proxy string `yaml:"proxy"`

	// NoSandbox disables the Chrome sandbox, needed when running as root in
	// containers.
	NoSandbox bool `yaml:"no_sandbox"`

	// Stealth injects fingerprint-masking scripts into every document.
	Stealth bool `yaml:"stealth"`

	// ExecPath overrides the Chrome binary. Empty uses the first one found.
	ExecPath string `yaml:"exec_path"`

	// NavigationTimeout bounds loading the target until the network is idle.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`

	// ActionTimeout bounds single interactions such as clicks and captures.
	ActionTimeout time.Duration `yaml:"action_timeout"`
}

// DefaultOptions returns the launch options used by the scraper.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		NoSandbox:         true,
		Stealth:           true,
		NavigationTimeout: 60 * time.Second,
		ActionTimeout:     30 * time.Second,
	}
}
