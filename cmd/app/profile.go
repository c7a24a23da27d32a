package main

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/profiles"
)

// resolveProfile picks the daemon to talk to: TRG_URL wins, otherwise the
// named profile from the profile dir, otherwise its only profile.
func resolveProfile(cfg config, logger *zap.Logger) (profiles.Profile, error) {
	var p profiles.Profile
	if cfg.DaemonURL != "" {
		var err error
		if p, err = profiles.FromURL("env", cfg.DaemonURL); err != nil {
			return p, err
		}
	} else {
		all, err := profiles.LoadAll(cfg.ProfileDir, logger)
		if err != nil {
			return p, fmt.Errorf("profiles: %w", err)
		}
		if p, err = pickProfile(all, cfg.Profile); err != nil {
			return p, err
		}
	}
	if cfg.MaxPeers > 0 {
		p.MaxPeers = cfg.MaxPeers
	}
	return p, nil
}

func pickProfile(all map[string]profiles.Profile, name string) (profiles.Profile, error) {
	if name != "" {
		p, ok := all[name]
		if !ok {
			return p, fmt.Errorf("profile %q not found", name)
		}
		return p, nil
	}
	if len(all) == 1 {
		for _, p := range all {
			return p, nil
		}
	}
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return profiles.Profile{}, fmt.Errorf("choose a profile with TRG_PROFILE or --profile: %v", names)
}
