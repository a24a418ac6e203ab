package config

// GlobalConfig is the machine-wide configuration (~/.config/loft/config.yaml).
type GlobalConfig struct {
	// ChromePath overrides browser auto-detection when set.
	ChromePath string `yaml:"chrome_path,omitempty"`
}

// NewGlobalConfig returns the default global configuration.
func NewGlobalConfig() *GlobalConfig {
	return &GlobalConfig{}
}

// ServiceConfig is the per-service configuration
// (~/.config/loft/services/<name>.yaml).
type ServiceConfig struct {
	Autostart    bool `yaml:"autostart"`
	StartHidden  bool `yaml:"start_hidden"`
	DoNotDisturb bool `yaml:"do_not_disturb"`
}

// NewServiceConfig returns the default per-service configuration.
func NewServiceConfig() *ServiceConfig {
	return &ServiceConfig{}
}

// LoadGlobalConfig loads the global config, or defaults if absent.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GlobalConfigFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, NewGlobalConfig)
}

// SaveGlobalConfig persists the global config.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path, err := GlobalConfigFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, cfg)
}

// LoadServiceConfig loads a service's config, or defaults if absent.
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	path, err := ServiceConfigFile(serviceName)
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, NewServiceConfig)
}

// SaveServiceConfig persists a service's config.
func SaveServiceConfig(serviceName string, cfg *ServiceConfig) error {
	path, err := ServiceConfigFile(serviceName)
	if err != nil {
		return err
	}
	return SaveYAML(path, cfg)
}

// RemoveServiceConfig deletes a service's config file, ignoring absence.
func RemoveServiceConfig(serviceName string) error {
	path, err := ServiceConfigFile(serviceName)
	if err != nil {
		return err
	}
	if !FileExists(path) {
		return nil
	}
	return remove(path)
}
