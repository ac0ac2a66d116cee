package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Shreshtthh/MetaScore/scoring"
)

// DemoSource is one source entry of a setup manifest.
type DemoSource struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Category string `yaml:"category"`
	Points   uint64 `yaml:"points"`
	IssueKey bool   `yaml:"issue_key"`
}

// DemoManifest describes a deployment to bootstrap: extra trackers to allow
// and sources to verify.
type DemoManifest struct {
	Trackers []string     `yaml:"trackers"`
	Sources  []DemoSource `yaml:"sources"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*DemoManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m DemoManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, s := range m.Sources {
		if s.Address == "" || s.Category == "" {
			return nil, fmt.Errorf("source %d (%s): address and category are required", i, s.Name)
		}
	}
	return &m, nil
}

// columns splits the sources into the parallel lists a batch verify takes.
func (m *DemoManifest) columns() (addrs, categories []string, points []uint64) {
	for _, s := range m.Sources {
		addrs = append(addrs, s.Address)
		categories = append(categories, s.Category)
		points = append(points, s.Points)
	}
	return addrs, categories, points
}

func init() {
	var manifestPath string
	setupCmd := &cobra.Command{
		Use:   "setup-demo",
		Short: "Authorize the activity tracker and verify the manifest's sources (owner key)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := session(ctx)
			if err != nil {
				return err
			}
			info, err := c.Info(ctx)
			if err != nil {
				return err
			}

			trackers := append([]string{info.TrackerIdentity}, m.Trackers...)
			for _, t := range trackers {
				if err := c.Authorize(ctx, t, true); err != nil {
					return fmt.Errorf("authorize %s: %w", t, err)
				}
				fmt.Fprintf(os.Stdout, "tracker  %s allowed\n", t)
			}

			addrs, categories, points := m.columns()
			if err := c.VerifySources(ctx, addrs, categories, points); err != nil {
				return fmt.Errorf("verify sources: %w", err)
			}
			keys := map[string]string{}
			for _, s := range m.Sources {
				line := fmt.Sprintf("source   %-16s %s %s +%d", s.Name, s.Address, s.Category, s.Points)
				if s.IssueKey {
					key, err := c.IssueSourceKey(ctx, s.Address)
					if err != nil {
						return fmt.Errorf("issue key for %s: %w", s.Address, err)
					}
					keys[s.Address] = key
					line += "  key=" + key
				}
				fmt.Fprintln(os.Stdout, line)
			}

			rec, err := c.Mint(ctx, "")
			if errors.Is(err, scoring.ErrAlreadyMinted) {
				rec, err = c.RecordByOwner(ctx, info.Owner)
			}
			if err != nil {
				return fmt.Errorf("mint deployer record: %w", err)
			}
			for _, s := range m.Sources {
				key, ok := keys[s.Address]
				if !ok {
					continue
				}
				if _, err := c.Track(ctx, s.Address, key, rec.Owner, "setup-demo"); err != nil {
					return fmt.Errorf("track via %s: %w", s.Name, err)
				}
			}
			rec, err = c.Record(ctx, rec.ID)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, rec)
		},
	}
	setupCmd.Flags().StringVarP(&manifestPath, "manifest", "f", "config/demo_sources.yaml", "Setup manifest")
	rootCmd.AddCommand(setupCmd)
}
