// hpresolve resolves hierarchical training hyperparameter documents into
// per-task configurations and callback instantiation requests.
//
// Usage:
//
//	hpresolve resolve <document> [--set section.field=value]... [-o out.yaml] [--format yaml|json]
//	hpresolve validate <pattern>...
//	hpresolve query <document> <jq-filter>
//	hpresolve show <document> [--task name]
//	hpresolve diff <document> <taskA> <taskB>
//	hpresolve watch <document>
//	hpresolve callbacks
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
