// Package policy holds the read-only scan policy: which targets may be scanned,
// which ports are scanned by default, how long each tool may run and which
// extra flags callers may pass. A Policy is built once at startup and shared by
// every request.
package policy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/tb0hdan/secscan-mcp/pkg/types"
)

var (
	ErrInvalidTarget   = errors.New("invalid target")
	ErrInvalidPortSpec = errors.New("invalid port specification")
)

// portSpecPattern allows digits, commas, dashes and whitespace only.
var portSpecPattern = regexp.MustCompile(`^[0-9,\-\s]+$`)

// Target is a host or network that passed ValidateTarget.
type Target string

// PortSpec is a port list that passed ValidatePortSpec.
type PortSpec string

// ExtraOptionsMode decides what happens to caller supplied extra flags.
type ExtraOptionsMode string

const (
	// ExtraOptionsPermissive appends every whitespace separated token verbatim.
	ExtraOptionsPermissive ExtraOptionsMode = "permissive"
	// ExtraOptionsStrict only appends tokens matching an allowed flag pattern.
	ExtraOptionsStrict ExtraOptionsMode = "strict"
	// ExtraOptionsDisabled rejects any extra option.
	ExtraOptionsDisabled ExtraOptionsMode = "disabled"
)

// Valid reports whether m is a known mode.
func (m ExtraOptionsMode) Valid() bool {
	switch m {
	case ExtraOptionsPermissive, ExtraOptionsStrict, ExtraOptionsDisabled:
		return true
	}
	return false
}

// Options are the inputs to New.
type Options struct {
	AllowedPrefixes  []string
	DefaultPorts     string
	MaxPortEntries   int
	MaxTimeout       time.Duration
	Timeouts         map[string]time.Duration
	ExtraOptionsMode ExtraOptionsMode
	AllowedFlags     []string
}

// Policy is immutable after New returns.
type Policy struct {
	prefixes       []string
	defaultPorts   PortSpec
	maxPortEntries int
	maxTimeout     time.Duration
	timeouts       map[string]time.Duration
	extraMode      ExtraOptionsMode
	allowedFlags   []glob.Glob
}

// DefaultAllowedPrefixes returns loopback names and private network prefixes.
func DefaultAllowedPrefixes() []string {
	return []string{"localhost", "127.0.0.1", "10.", "192.168.", "172."}
}

// DefaultTimeouts returns the per tool (and per nmap mode) time limits.
func DefaultTimeouts() map[string]time.Duration {
	return map[string]time.Duration{
		TimeoutKey("nmap", "basic"):      60 * time.Second,
		TimeoutKey("nmap", "aggressive"): 120 * time.Second,
		TimeoutKey("nmap", "stealth"):    180 * time.Second,
		TimeoutKey("nmap", "udp"):        240 * time.Second,
		"nikto":                          300 * time.Second,
		"dirb":                           180 * time.Second,
		"wpscan":                         300 * time.Second,
		"sqlmap":                         300 * time.Second,
		"searchsploit":                   300 * time.Second,
		"hydra":                          180 * time.Second,
	}
}

// DefaultAllowedFlags returns the flag patterns accepted in strict mode.
func DefaultAllowedFlags() []string {
	return []string{
		"-Pn", "-n", "-sV", "-sC", "-O", "--open", "--reason",
		"--top-ports", "--top-ports=[0-9]*",
		"--max-retries", "--max-retries=[0-9]*",
		"--version-light", "--version-all",
		"[0-9]*",
	}
}

// DefaultOptions returns the options used by Default.
func DefaultOptions() Options {
	return Options{
		AllowedPrefixes:  DefaultAllowedPrefixes(),
		DefaultPorts:     types.DefaultPortSpec,
		MaxTimeout:       types.MaxScanTimeout,
		Timeouts:         DefaultTimeouts(),
		ExtraOptionsMode: ExtraOptionsPermissive,
		AllowedFlags:     DefaultAllowedFlags(),
	}
}

// TimeoutKey builds the timeout table key for a tool and optional mode.
func TimeoutKey(tool, mode string) string {
	if mode == "" {
		return tool
	}
	return tool + "." + mode
}

// New validates opts and builds a Policy.
func New(opts Options) (*Policy, error) {
	if len(opts.AllowedPrefixes) == 0 {
		return nil, errors.New("no allowed target prefixes")
	}
	if opts.MaxTimeout <= 0 || opts.MaxTimeout > types.MaxScanTimeout {
		return nil, fmt.Errorf("max timeout must be within (0, %s], got %s", types.MaxScanTimeout, opts.MaxTimeout)
	}
	if opts.MaxPortEntries < 0 {
		return nil, fmt.Errorf("max port entries cannot be negative, got %d", opts.MaxPortEntries)
	}

	mode := opts.ExtraOptionsMode
	if mode == "" {
		mode = ExtraOptionsPermissive
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown extra options mode %q", mode)
	}

	defaultPorts := opts.DefaultPorts
	if defaultPorts == "" {
		defaultPorts = types.DefaultPortSpec
	}
	if !portSpecPattern.MatchString(defaultPorts) {
		return nil, fmt.Errorf("%w: default ports %q", ErrInvalidPortSpec, defaultPorts)
	}

	prefixes := make([]string, 0, len(opts.AllowedPrefixes))
	for _, prefix := range opts.AllowedPrefixes {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix == "" {
			return nil, errors.New("empty allowed target prefix")
		}
		prefixes = append(prefixes, prefix)
	}

	timeouts := make(map[string]time.Duration, len(opts.Timeouts))
	for key, timeout := range opts.Timeouts {
		if timeout <= 0 {
			return nil, fmt.Errorf("timeout for %q must be positive", key)
		}
		timeouts[key] = timeout
	}

	flags := make([]glob.Glob, 0, len(opts.AllowedFlags))
	for _, pattern := range opts.AllowedFlags {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed flag pattern %q: %w", pattern, err)
		}
		flags = append(flags, compiled)
	}

	return &Policy{
		prefixes:       prefixes,
		defaultPorts:   PortSpec(defaultPorts),
		maxPortEntries: opts.MaxPortEntries,
		maxTimeout:     opts.MaxTimeout,
		timeouts:       timeouts,
		extraMode:      mode,
		allowedFlags:   flags,
	}, nil
}

// Default returns a Policy built from DefaultOptions.
func Default() *Policy {
	p, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateTarget trims raw and checks it against the allowed prefixes.
// The check is lexical only: nothing is resolved, so a hostname is accepted
// or rejected purely on how it is spelled.
func (p *Policy) ValidateTarget(raw string) (Target, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("%w: target cannot be empty", ErrInvalidTarget)
	}

	lower := strings.ToLower(target)
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(lower, prefix) {
			return Target(target), nil
		}
	}

	return "", fmt.Errorf("%w: %s not allowed, only private networks (192.168.x.x, 10.x.x.x, 172.x.x.x, localhost) permitted", ErrInvalidTarget, target)
}

// ValidatePortSpec returns the default port list for blank input, otherwise raw unchanged
// if it only contains digits, commas, dashes and whitespace.
func (p *Policy) ValidatePortSpec(raw string) (PortSpec, error) {
	if strings.TrimSpace(raw) == "" {
		return p.defaultPorts, nil
	}

	if !portSpecPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: use numbers, commas, or ranges (e.g., 80,443,8000-9000)", ErrInvalidPortSpec)
	}

	if p.maxPortEntries > 0 {
		entries := 0
		for _, entry := range strings.Split(raw, ",") {
			if strings.TrimSpace(entry) != "" {
				entries++
			}
		}
		if entries > p.maxPortEntries {
			return "", fmt.Errorf("%w: %d entries exceeds the limit of %d", ErrInvalidPortSpec, entries, p.maxPortEntries)
		}
	}

	return PortSpec(raw), nil
}

// Timeout returns the limit for tool in mode, falling back to the tool entry
// and then to the global maximum. The result never exceeds the global maximum.
func (p *Policy) Timeout(tool, mode string) time.Duration {
	timeout, ok := p.timeouts[TimeoutKey(tool, mode)]
	if !ok {
		timeout, ok = p.timeouts[tool]
	}
	if !ok || timeout > p.maxTimeout {
		return p.maxTimeout
	}
	return timeout
}

// MaxTimeout is the global ceiling.
func (p *Policy) MaxTimeout() time.Duration {
	return p.maxTimeout
}

// DefaultPorts is the port list used when the caller gives none.
func (p *Policy) DefaultPorts() PortSpec {
	return p.defaultPorts
}

// ExtraOptionsMode returns how extra flags are treated.
func (p *Policy) ExtraOptionsMode() ExtraOptionsMode {
	return p.extraMode
}

// FlagAllowed reports whether token matches one of the strict mode patterns.
func (p *Policy) FlagAllowed(token string) bool {
	for _, pattern := range p.allowedFlags {
		if pattern.Match(token) {
			return true
		}
	}
	return false
}

var defaultPolicy = Default()

// ValidateTarget checks raw against the default policy.
func ValidateTarget(raw string) (Target, error) {
	return defaultPolicy.ValidateTarget(raw)
}

// ValidatePortSpec checks raw against the default policy.
func ValidatePortSpec(raw string) (PortSpec, error) {
	return defaultPolicy.ValidatePortSpec(raw)
}
