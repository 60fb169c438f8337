// Package command turns validated scan parameters into argument vectors.
package command

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/types"
)

const (
	ToolNmap         = "nmap"
	ToolNikto        = "nikto"
	ToolDirb         = "dirb"
	ToolWPScan       = "wpscan"
	ToolSQLMap       = "sqlmap"
	ToolSearchsploit = "searchsploit"
	ToolHydra        = "hydra"

	DefaultNmapMode = "basic"
)

var (
	ErrUnknownTool          = errors.New("unknown tool")
	ErrUnknownMode          = errors.New("unknown mode")
	ErrMissingParameter     = errors.New("missing parameter")
	ErrExtraOptionsDisabled = errors.New("extra options are disabled")
	ErrFlagNotAllowed       = errors.New("flag not allowed")
)

// Params carries everything a builder may need. Target and Ports must come
// from the policy validators; every other field is tool specific.
type Params struct {
	Target       policy.Target
	Ports        policy.PortSpec
	Mode         string
	ExtraOptions string

	// Web tools.
	Port      int
	SSL       bool
	Wordlist  string
	Enumerate []string

	// sqlmap.
	Method string
	Data   string
	Cookie string

	// searchsploit.
	Keyword     string
	Platform    string
	ExploitType string

	// hydra.
	Service  string
	Username string
}

// Definition describes what a tool needs from the caller.
type Definition struct {
	Program        string
	Description    string
	RequiresTarget bool
	UsesPorts      bool
}

type buildFunc func(p Params) ([]string, error)

type tool struct {
	Definition
	build buildFunc
	// modeKey returns the timeout table mode for p, empty when the tool has one timeout.
	modeKey func(p Params) string
}

// nmapModes maps a scan mode to its literal flag set.
var nmapModes = map[string][]string{
	"basic":      {"-sS", "-T4"},
	"aggressive": {"-sS", "-A", "-T4"},
	"stealth":    {"-sS", "-T2", "-f"},
	"udp":        {"-sU", "-T3"},
}

// NmapModes returns the supported nmap modes in sorted order.
func NmapModes() []string {
	modes := make([]string, 0, len(nmapModes))
	for mode := range nmapModes {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// Builder builds commands under a policy. It holds no mutable state.
type Builder struct {
	policy *policy.Policy
	tools  map[string]tool
}

// NewBuilder returns a Builder for the fixed tool set.
func NewBuilder(p *policy.Policy) *Builder {
	return &Builder{
		policy: p,
		tools: map[string]tool{
			ToolNmap: {
				Definition: Definition{Program: "nmap", Description: "Network mapper and port scanner", RequiresTarget: true, UsesPorts: true},
				build:      buildNmap,
				modeKey:    nmapMode,
			},
			ToolNikto: {
				Definition: Definition{Program: "nikto", Description: "Web vulnerability scanner", RequiresTarget: true},
				build:      buildNikto,
			},
			ToolDirb: {
				Definition: Definition{Program: "dirb", Description: "Directory brute forcer", RequiresTarget: true},
				build:      buildDirb,
			},
			ToolWPScan: {
				Definition: Definition{Program: "wpscan", Description: "WordPress security scanner", RequiresTarget: true},
				build:      buildWPScan,
			},
			ToolSQLMap: {
				Definition: Definition{Program: "sqlmap", Description: "SQL injection testing tool", RequiresTarget: true},
				build:      buildSQLMap,
			},
			ToolSearchsploit: {
				Definition: Definition{Program: "searchsploit", Description: "Exploit database search"},
				build:      buildSearchsploit,
			},
			ToolHydra: {
				Definition: Definition{Program: "hydra", Description: "Password brute forcer", RequiresTarget: true},
				build:      buildHydra,
			},
		},
	}
}

// Tools returns the known tool ids in sorted order.
func (b *Builder) Tools() []string {
	ids := make([]string, 0, len(b.tools))
	for id := range b.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Describe returns the definition of toolID.
func (b *Builder) Describe(toolID string) (Definition, bool) {
	t, ok := b.tools[toolID]
	return t.Definition, ok
}

// Build returns the command for toolID and the time it may run.
// Extra options are split on whitespace and appended as separate tokens
// after the tool's own arguments, subject to the policy's extra options mode.
func (b *Builder) Build(toolID string, params Params) (Spec, time.Duration, error) {
	t, ok := b.tools[toolID]
	if !ok {
		return Spec{}, 0, fmt.Errorf("%w: %q", ErrUnknownTool, toolID)
	}

	if t.RequiresTarget && params.Target == "" {
		return Spec{}, 0, fmt.Errorf("%w: target is required for %s", ErrMissingParameter, toolID)
	}

	args, err := t.build(params)
	if err != nil {
		return Spec{}, 0, err
	}

	extra, err := b.extraOptions(params.ExtraOptions)
	if err != nil {
		return Spec{}, 0, err
	}
	args = append(args, extra...)

	mode := ""
	if t.modeKey != nil {
		mode = t.modeKey(params)
	}

	return NewSpec(t.Program, args...), b.policy.Timeout(toolID, mode), nil
}

func (b *Builder) extraOptions(raw string) ([]string, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nil, nil
	}

	switch b.policy.ExtraOptionsMode() {
	case policy.ExtraOptionsDisabled:
		return nil, ErrExtraOptionsDisabled
	case policy.ExtraOptionsStrict:
		for _, token := range tokens {
			if !b.policy.FlagAllowed(token) {
				return nil, fmt.Errorf("%w: %q", ErrFlagNotAllowed, token)
			}
		}
	}

	return tokens, nil
}

// WebURL builds scheme://host:port from a validated target.
func WebURL(ssl bool, target policy.Target, port int) string {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	if port == 0 {
		port = 80
	}
	return scheme + "://" + net.JoinHostPort(string(target), strconv.Itoa(port))
}

func nmapMode(p Params) string {
	if p.Mode == "" {
		return DefaultNmapMode
	}
	return p.Mode
}

func buildNmap(p Params) ([]string, error) {
	mode := nmapMode(p)
	flags, ok := nmapModes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: nmap scan type %q, expected one of %s", ErrUnknownMode, mode, strings.Join(NmapModes(), ", "))
	}

	ports := p.Ports
	if strings.TrimSpace(string(ports)) == "" {
		ports = types.DefaultPortSpec
	}

	args := []string{"-v"}
	args = append(args, flags...)
	args = append(args, "-p", string(ports), string(p.Target))
	return args, nil
}

func buildNikto(p Params) ([]string, error) {
	return []string{"-h", WebURL(p.SSL, p.Target, p.Port), "-Format", "txt"}, nil
}

func buildDirb(p Params) ([]string, error) {
	args := []string{WebURL(p.SSL, p.Target, p.Port)}
	if p.Wordlist != "" {
		args = append(args, p.Wordlist)
	}
	return args, nil
}

func buildWPScan(p Params) ([]string, error) {
	args := []string{"--url", WebURL(p.SSL, p.Target, p.Port), "--no-banner"}
	for _, item := range p.Enumerate {
		if item = strings.TrimSpace(item); item != "" {
			args = append(args, "--enumerate", item)
		}
	}
	return args, nil
}

func buildSQLMap(p Params) ([]string, error) {
	args := []string{"-u", string(p.Target), "--batch", "--no-logging"}

	switch strings.ToUpper(p.Method) {
	case "", "GET":
	case "POST":
		args = append(args, "--data", p.Data)
	default:
		return nil, fmt.Errorf("%w: sqlmap method %q, expected GET or POST", ErrUnknownMode, p.Method)
	}

	if p.Cookie != "" {
		args = append(args, "--cookie", p.Cookie)
	}
	return args, nil
}

func buildSearchsploit(p Params) ([]string, error) {
	keyword := strings.TrimSpace(p.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required for searchsploit", ErrMissingParameter)
	}

	args := []string{keyword}
	if p.Platform != "" {
		args = append(args, "-p", p.Platform)
	}
	if p.ExploitType != "" {
		args = append(args, "-t", p.ExploitType)
	}
	return args, nil
}

func buildHydra(p Params) ([]string, error) {
	if p.Username == "" {
		return nil, fmt.Errorf("%w: username is required for hydra", ErrMissingParameter)
	}
	if p.Service == "" {
		return nil, fmt.Errorf("%w: service is required for hydra", ErrMissingParameter)
	}

	wordlist := p.Wordlist
	if wordlist == "" {
		wordlist = types.DefaultWordlist
	}
	return []string{"-l", p.Username, "-P", wordlist, string(p.Target), p.Service}, nil
}
