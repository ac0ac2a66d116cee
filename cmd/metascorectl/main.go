package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/Shreshtthh/MetaScore/client"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:           "metascorectl",
		Short:         "CLI client for the MetaScore reputation API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", envOr("METASCORE_API", "http://localhost:8080"), "MetaScore service base URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadKey reads the signing key from PRIVATE_KEY (hex, optional 0x prefix).
func loadKey() (*ecdsa.PrivateKey, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(os.Getenv("PRIVATE_KEY")), "0x")
	if raw == "" {
		return nil, fmt.Errorf("PRIVATE_KEY is not set")
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIVATE_KEY: %w", err)
	}
	return key, nil
}

// session returns a client logged in with PRIVATE_KEY.
func session(ctx context.Context) (*client.Client, error) {
	key, err := loadKey()
	if err != nil {
		return nil, err
	}
	c := client.New(apiFlag)
	if _, err := c.Login(ctx, key); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
