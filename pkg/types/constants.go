package types

import "time"

const (
	// MaxDefaultLines is the number of output lines returned when the caller does not ask for more.
	MaxDefaultLines = 200
	// MaxAllowedLines caps max_lines on every tool input.
	MaxAllowedLines = 100000

	// MaxScanTimeout is the ceiling for any single tool invocation.
	MaxScanTimeout = 5 * time.Minute
	// DefaultScanDirectory is the working directory of every spawned tool.
	DefaultScanDirectory = "/tmp/scans"
	// DefaultPortSpec is used when a caller omits ports.
	DefaultPortSpec = "22,23,25,53,80,110,143,443,993,995"
	// DefaultWordlist is the hydra password list used when none is given.
	DefaultWordlist = "/usr/share/wordlists/rockyou.txt"
	// StaleFileAge is how old a report file in the scan directory must be before the janitor removes it.
	StaleFileAge = time.Hour
)
