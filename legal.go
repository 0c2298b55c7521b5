package callgraphdb

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// LegalText returns legal text to be included in human-readable output using callgraphdb.
// It names every module compiled into the running binary.
func LegalText() string {
	var builder strings.Builder
	builder.WriteString(`
================================================================================
callgraphdb - A call graph database
================================================================================
`)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		builder.WriteString("No build information available.\n")
		return builder.String()
	}

	fmt.Fprintf(&builder, "%s %s, built with %s\n\n", info.Main.Path, info.Main.Version, info.GoVersion)
	builder.WriteString("This program includes the following modules, each under its own license:\n\n")
	for _, dep := range info.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		fmt.Fprintf(&builder, "  %s %s\n", dep.Path, dep.Version)
	}
	return builder.String()
}
