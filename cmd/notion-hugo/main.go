// Package main provides the notion-hugo CLI, a one-way sync from a Notion
// database into a Hugo content directory.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
	os.Exit(exitSuccess)
}

// exitCodeFor separates misconfiguration from runtime failure. Invalid
// flags, config values, and unusable references are the user's to fix;
// everything else is a system failure.
func exitCodeFor(err error) int {
	var capErr *types.CapabilityError
	var schemaErr *types.SchemaError
	switch {
	case errors.As(err, &capErr),
		errors.As(err, &schemaErr),
		errors.Is(err, types.ErrContainerRefEmpty),
		errors.Is(err, types.ErrModeUnknown),
		errors.Is(err, types.ErrConcurrencyInvalid),
		errors.Is(err, types.ErrPageSizeInvalid),
		errors.Is(err, types.ErrFilenameFormatUnknown),
		errors.Is(err, types.ErrRuleTargetEmpty),
		errors.Is(err, types.ErrRuleSourcesEmpty),
		errors.Is(err, types.ErrRuleTransformUnknown),
		errors.Is(err, errMissingToken):
		return exitUserError
	default:
		return exitSysError
	}
}
