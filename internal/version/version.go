// Package version provides version information for the LiveRadio binaries.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Name is the application name
	Name = "LiveRadio"

	// Version is the semantic version (set via -ldflags at build time)
	Version = "0.3.0"

	// BuildTime is the build timestamp (set via -ldflags at build time)
	BuildTime = ""

	// GitCommit is the git commit hash (set via -ldflags at build time)
	GitCommit = ""
)

// Info contains version information
type Info struct {
	Name      string `json:"name"`
	Component string `json:"component,omitempty"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

// GetInfo returns the current version information
func GetInfo() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
}

// For returns version information tagged with the binary component ("client", "station").
func For(component string) Info {
	info := GetInfo()
	info.Component = component
	return info
}

// String returns a formatted version string
func (i Info) String() string {
	s := fmt.Sprintf("%s v%s", i.Name, i.Version)
	if i.Component != "" {
		s = fmt.Sprintf("%s %s v%s", i.Name, i.Component, i.Version)
	}
	if i.GitCommit != "" {
		s += fmt.Sprintf(" (%s)", i.GitCommit[:min(7, len(i.GitCommit))])
	}
	if i.BuildTime != "" {
		s += fmt.Sprintf(" built %s", i.BuildTime)
	}
	return s
}
