package main

import (
	"fmt"
	"strconv"
	"strings"
)

// options holds every flag spec.md §6 lists, parsed by parseArgs. No
// library in the retrieval pack supports a runtime-configurable option
// prefix (the `+option-prefix` self-reference, grounded in
// original_source/main.c's Args_parse), so this is a small hand-rolled
// parser instead — see DESIGN.md.
type options struct {
	version         bool
	disassemble     bool
	blockAllocator  int // KB; GC collection threshold, 0 means the collector's default
	aotFunctions    bool
	memoryUsage     bool
	verbose         bool
	stats           bool
	run             string
	help            bool
	optionPrefix    string
	inputFile       string
}

func defaultOptions() *options {
	return &options{optionPrefix: "+"}
}

// parseArgs scans argv (excluding argv[0]) for flags under o.optionPrefix
// and a single positional input file. +option-prefix itself is
// recognized first, under the default "+", so a caller can rebind it
// before any other flag is read.
func parseArgs(argv []string) (*options, error) {
	o := defaultOptions()

	const bootstrapPrefix = "+"
	for _, a := range argv {
		if strings.HasPrefix(a, bootstrapPrefix+"option-prefix=") {
			o.optionPrefix = strings.TrimPrefix(a, bootstrapPrefix+"option-prefix=")
		}
	}

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		if strings.HasPrefix(a, bootstrapPrefix+"option-prefix=") {
			continue
		}
		if !strings.HasPrefix(a, o.optionPrefix) {
			if o.inputFile != "" {
				return nil, fmt.Errorf("unexpected extra positional argument %q", a)
			}
			o.inputFile = a
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(a, o.optionPrefix), "=")

		switch name {
		case "v", "version":
			o.version = true
		case "d", "disassemble":
			o.disassemble = true
		case "b", "block-allocator":
			if !hasValue {
				return nil, fmt.Errorf("%s%s requires a KB value", o.optionPrefix, name)
			}
			kb, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%s%s: invalid KB value %q", o.optionPrefix, name, value)
			}
			o.blockAllocator = kb
		case "a", "aot-functions":
			o.aotFunctions = true
		case "m", "memory-usage":
			o.memoryUsage = true
		case "V", "verbose":
			o.verbose = true
		case "s", "stats":
			o.stats = true
		case "r", "run":
			if !hasValue {
				return nil, fmt.Errorf("%s%s requires literal source", o.optionPrefix, name)
			}
			o.run = value
		case "h", "help":
			o.help = true
		case "option-prefix":
			// already consumed in the pre-scan above
		default:
			return nil, fmt.Errorf("unknown option %s%s", o.optionPrefix, name)
		}
	}
	return o, nil
}
