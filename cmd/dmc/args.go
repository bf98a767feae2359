// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
)

// flagSpec is a dmc option recognised among pandoc passthrough arguments.
type flagSpec struct {
	short string
	long  string
	// value reports whether the option takes an argument.
	value bool
	set   func(string)
}

func (f flagSpec) matches(name string) bool {
	return (f.short != "" && name == f.short) || name == f.long
}

// splitResult holds the outcome of splitArgs.
type splitResult struct {
	inputs      []string
	passthrough []string
	help        bool
}

// pandocValueOptions take their value from the next token when written
// without "=". The value is kept with the option instead of being read as
// an input file.
var pandocValueOptions = map[string]bool{
	"-t": true, "--to": true, "-w": true, "--write": true,
	"-f": true, "--from": true, "--read": true,
	"-M": true, "--metadata": true, "-V": true, "--variable": true,
	"-L": true, "--lua-filter": true, "-F": true, "--filter": true,
	"-d": true, "--defaults": true,
	"--columns": true, "--wrap": true, "--tab-stop": true,
	"--track-changes": true, "--extract-media": true,
	"--resource-path": true, "--data-dir": true, "--template": true,
	"--reference-doc": true, "--metadata-file": true,
	"--shift-heading-level-by": true, "--toc-depth": true,
	"--highlight-style": true, "--syntax-highlighting": true,
	"--bibliography": true, "--csl": true,
}

// splitArgs separates dmc options, input files and pandoc passthrough
// arguments. Everything after "--" is passed through.
func splitArgs(args []string, specs []flagSpec) (splitResult, error) {
	var res splitResult
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			res.passthrough = append(res.passthrough, args[i+1:]...)
			return res, nil
		case arg == "-h" || arg == "--help":
			res.help = true
			continue
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			res.inputs = append(res.inputs, arg)
			continue
		}

		name, inline, hasInline := strings.Cut(arg, "=")
		if spec, ok := lookupSpec(specs, name); ok {
			if !spec.value {
				if hasInline {
					return res, fmt.Errorf("option %s does not take a value", name)
				}
				spec.set("true")
				continue
			}
			if !hasInline {
				if i+1 >= len(args) {
					return res, fmt.Errorf("option %s needs a value", name)
				}
				i++
				inline = args[i]
			}
			spec.set(inline)
			continue
		}
		if spec, ok := attachedShort(specs, arg); ok {
			spec.set(arg[len(spec.short):])
			continue
		}

		res.passthrough = append(res.passthrough, arg)
		if !hasInline && pandocValueOptions[arg] && i+1 < len(args) {
			i++
			res.passthrough = append(res.passthrough, args[i])
		}
	}
	return res, nil
}

func lookupSpec(specs []flagSpec, name string) (flagSpec, bool) {
	for _, s := range specs {
		if s.matches(name) {
			return s, true
		}
	}
	return flagSpec{}, false
}

// attachedShort matches "-ofile" for a short option that takes a value.
func attachedShort(specs []flagSpec, arg string) (flagSpec, bool) {
	if strings.HasPrefix(arg, "--") {
		return flagSpec{}, false
	}
	for _, s := range specs {
		if s.value && s.short != "" && len(arg) > len(s.short) && strings.HasPrefix(arg, s.short) {
			return s, true
		}
	}
	return flagSpec{}, false
}

func stringFlag(short, long string, dst *string) flagSpec {
	return flagSpec{short: short, long: long, value: true, set: func(v string) { *dst = v }}
}

func boolFlag(short, long string, dst *bool) flagSpec {
	return flagSpec{short: short, long: long, set: func(string) { *dst = true }}
}
