// Package store provides thread, brand and channel profile repositories.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mikey/outreach-agent/internal/core"
)

// LoadThreads reads email threads from a JSON fixture file
func LoadThreads(path string) ([]*core.EmailThread, error) {
	var threads []*core.EmailThread
	if err := loadJSON(path, &threads); err != nil {
		return nil, err
	}
	for _, t := range threads {
		if t.Status == "" {
			t.Status = core.ThreadStatusOpen
		}
	}
	return threads, nil
}

// LoadBrands reads brand profiles from a JSON fixture file
func LoadBrands(path string) ([]*core.BrandProfile, error) {
	var brands []*core.BrandProfile
	if err := loadJSON(path, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// LoadProfiles reads channel profiles from a JSON fixture file
func LoadProfiles(path string) ([]*core.ChannelProfile, error) {
	var profiles []*core.ChannelProfile
	if err := loadJSON(path, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return nil
}
