package main

import (
	"context"
	"fmt"
	"os"

	"github.com/slipway-sh/slipway/internal/shell/api"
	"github.com/slipway-sh/slipway/internal/shell/store"
)

// =============================================================================
// Token Commands
// =============================================================================

// runTokenCommand handles the -create-token and -delete-token flags. These
// bypass the HTTP server on purpose: minting a credential must work before
// any credential exists.
func runTokenCommand(cfg *Config, create, del string) int {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return ExitDatabaseError
	}
	defer s.Close()

	ctx := context.Background()

	if create != "" {
		credential, err := api.MintToken(ctx, s, create)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create token: %v\n", err)
			return ExitDatabaseError
		}
		fmt.Printf("API token %q created. The credential is shown once, store it now:\n%s\n", create, credential)
		return ExitSuccess
	}

	if err := s.DeleteAPIToken(ctx, del); err != nil {
		fmt.Fprintf(os.Stderr, "failed to delete token: %v\n", err)
		return ExitDatabaseError
	}
	fmt.Printf("API token %q deleted\n", del)
	return ExitSuccess
}
