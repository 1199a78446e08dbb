package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"smartbuyer-go/infrastructure/configstore"
	"smartbuyer-go/presentation/console"
)

// runConfigCommand handles --list-config, --get and --set.
func runConfigCommand(store *configstore.Store, opts *options, stdout, stderr io.Writer) int {
	if len(opts.set) > 0 {
		for _, kv := range opts.set {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				fmt.Fprintf(stderr, "Invalid --set %q, want KEY=VALUE\n", kv)
				return console.ExitConfig
			}
			if err := store.Set(key, value); err != nil {
				fmt.Fprintln(stderr, err)
				return console.ExitConfig
			}
		}
		if err := store.Commit(); err != nil {
			fmt.Fprintln(stderr, "Failed to save configuration:", err)
			return console.ExitCodeForError(err)
		}
		fmt.Fprintf(stdout, "Saved %s\n", store.Path())
	}

	if opts.get != "" {
		v, ok := store.Get(opts.get)
		if !ok {
			fmt.Fprintf(stderr, "Unknown configuration key %q\n", opts.get)
			return console.ExitConfig
		}
		fmt.Fprintln(stdout, formatValue(v))
	}

	if opts.listConfig {
		for _, key := range store.Keys() {
			v, _ := store.Get(key)
			fmt.Fprintf(stdout, "%s = %s\n", key, formatValue(v))
		}
	}
	return console.ExitOK
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
