package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadWorld loads the world configuration.
// Search order: customPath -> ~/.arena/world.yaml -> ./configs/world.yaml -> embedded default
func LoadWorld(customPath string) (WorldConfig, error) {
	var cfg WorldConfig

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("world.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil && cfg.Validate() == nil {
				return cfg, nil
			}
			cfg = WorldConfig{}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/world.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil && cfg.Validate() == nil {
			return cfg, nil
		}
		cfg = WorldConfig{}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultWorldYAML, &cfg); err != nil || cfg.Validate() != nil {
		return DefaultWorldConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// ParseWorld decodes and validates a world configuration from YAML bytes.
func ParseWorld(data []byte) (WorldConfig, error) {
	var cfg WorldConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".arena", filename)
}

// Validate checks cross references and value ranges.
func (c *WorldConfig) Validate() error {
	var errs []error

	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height))
	}
	if c.Player.MaxHP <= 0 {
		errs = append(errs, errors.New("player.max_hp must be positive"))
	}
	if len(c.Sections) == 0 {
		errs = append(errs, errors.New("at least one section is required"))
	}

	types := make(map[string]bool, len(c.EnemyTypes))
	for _, t := range c.EnemyTypes {
		if t.ID == "" {
			errs = append(errs, errors.New("enemy type with empty id"))
			continue
		}
		if types[t.ID] {
			errs = append(errs, fmt.Errorf("duplicate enemy type %q", t.ID))
		}
		types[t.ID] = true
		if t.MaxHP <= 0 {
			errs = append(errs, fmt.Errorf("enemy type %q: max_hp must be positive", t.ID))
		}
	}

	sections := make(map[string]bool, len(c.Sections))
	checkpoints := make(map[string]bool)
	for _, s := range c.Sections {
		if sections[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate section %q", s.ID))
		}
		sections[s.ID] = true
		if s.SpawnRate < 0 {
			errs = append(errs, fmt.Errorf("section %q: spawn_rate must not be negative", s.ID))
		}
		for _, cp := range s.Checkpoints {
			if checkpoints[cp.ID] {
				errs = append(errs, fmt.Errorf("duplicate checkpoint %q", cp.ID))
			}
			checkpoints[cp.ID] = true
			if cp.MaxEnemies < 0 || cp.TotalEnemies < 0 {
				errs = append(errs, fmt.Errorf("checkpoint %q: enemy caps must not be negative", cp.ID))
			}
			if cp.TotalEnemies > 0 && cp.MaxEnemies == 0 {
				errs = append(errs, fmt.Errorf("checkpoint %q: max_enemies must be positive when total_enemies is set", cp.ID))
			}
			if cp.TotalEnemies > 0 && len(cp.EnemyTypes) == 0 {
				errs = append(errs, fmt.Errorf("checkpoint %q: enemy_types is empty", cp.ID))
			}
			for _, id := range cp.EnemyTypes {
				if !types[id] {
					errs = append(errs, fmt.Errorf("checkpoint %q: unknown enemy type %q", cp.ID, id))
				}
			}
		}
		if s.Boss != nil && !types[s.Boss.TypeID] {
			errs = append(errs, fmt.Errorf("section %q: unknown boss type %q", s.ID, s.Boss.TypeID))
		}
	}

	for _, sk := range c.Skills {
		if !sk.Stat.Valid() {
			errs = append(errs, fmt.Errorf("skill %q: unknown stat %q", sk.ID, sk.Stat))
		}
	}
	for _, it := range c.Items {
		if !it.Stat.Valid() {
			errs = append(errs, fmt.Errorf("item %q: unknown stat %q", it.ID, it.Stat))
		}
		if it.Duration <= 0 {
			errs = append(errs, fmt.Errorf("item %q: duration must be positive", it.ID))
		}
	}

	return errors.Join(errs...)
}
