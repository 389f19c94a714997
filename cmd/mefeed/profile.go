package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mefeed/client-go/pkg/tokenmgr"
)

// profile is the on-disk YAML configuration of the CLI. Every field is
// optional; environment variables (MEFEED_*) fill the gaps and win on
// conflict, so a profile file is never required.
type profile struct {
	APIURL       string `yaml:"api_url"`
	TokenFile    string `yaml:"token_file"`
	TokenFileKey string `yaml:"token_file_key"`
}

// loadProfile merges the YAML profile under the environment-derived config.
func loadProfile(path string) (tokenmgr.Config, error) {
	var p profile
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return tokenmgr.Config{}, fmt.Errorf("parse profile %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return tokenmgr.Config{}, fmt.Errorf("read profile %s: %w", path, err)
	}

	if p.APIURL != "" && os.Getenv("MEFEED_API_URL") == "" {
		os.Setenv("MEFEED_API_URL", p.APIURL)
	}
	if p.TokenFile != "" && os.Getenv("MEFEED_TOKEN_FILE") == "" {
		os.Setenv("MEFEED_TOKEN_FILE", p.TokenFile)
	}
	if p.TokenFileKey != "" && os.Getenv("MEFEED_TOKEN_FILE_KEY") == "" {
		os.Setenv("MEFEED_TOKEN_FILE_KEY", p.TokenFileKey)
	}

	return tokenmgr.LoadConfig()
}
