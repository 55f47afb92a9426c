package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marcelsud/posthook/manifest"
)

/* validate-manifest - Standalone CLI tool to validate a hooks manifest
 * Usage: go run cmd/validate-manifest/main.go [hooks.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 * Nothing is sent to Posthook
 */

func main() {
	manifestFile := "hooks.yaml"
	if len(os.Args) > 1 {
		manifestFile = os.Args[1]
	}

	fmt.Printf("Validating manifest file: %s\n", manifestFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := manifest.NewLoader()
	if err := loader.Load(manifestFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	items := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d hook(s):\n", len(items))

	for i, item := range items {
		req := item.Request
		name := item.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("\n%d. Hook: %s\n", i+1, name)
		fmt.Printf("   Path:          %s\n", req.Path)

		switch {
		case req.PostIn != "":
			fmt.Printf("   Post in:       %s\n", req.PostIn)
		case !req.PostAt.IsZero():
			fmt.Printf("   Post at:       %s\n", req.PostAt.Format(time.RFC3339))
		default:
			fmt.Printf("   Post at local: %s (%s)\n", req.PostAtLocal, req.Timezone)
		}

		if rc := req.RetryOverride; rc != nil {
			fmt.Printf("   Retries:       %d, %s, %ds delay\n", rc.MinRetries, rc.Strategy, rc.DelaySecs)
		}
	}

	fmt.Printf("\n✓ All hooks are valid!\n")
	os.Exit(0)
}
