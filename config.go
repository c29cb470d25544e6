package ephem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable holding the directory of conf.toml.
const ConfigEnv = "EPHEM_CONFIG"

// Config is the configuration of a pool and its solver.
type Config struct {
	Kernels    []string
	LogLevel   string
	LogFile    string
	MaxKernels int
	LT, CN     LightTimeParams
}

// SetDefaults sets the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	lt, cn := DefaultLightTime(CorrLT), DefaultLightTime(CorrCN)
	v.SetDefault("kernels.files", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("pool.max_kernels", DefaultMaxKernels)
	v.SetDefault("lighttime.lt.max_iterations", lt.MaxIterations)
	v.SetDefault("lighttime.lt.tolerance", lt.Tolerance)
	v.SetDefault("lighttime.cn.max_iterations", cn.MaxIterations)
	v.SetDefault("lighttime.cn.tolerance", cn.Tolerance)
}

// LoadConfig reads the conf file (toml, yaml or json) of the provided directory.
func LoadConfig(dir string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("conf")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf: %w", dir, err)
	}
	return ConfigFromViper(v)
}

// ConfigFromEnv loads the configuration from the directory named by $EPHEM_CONFIG.
func ConfigFromEnv() (Config, error) {
	dir := os.Getenv(ConfigEnv)
	if dir == "" {
		return Config{}, fmt.Errorf("environment variable `%s` is missing or empty", ConfigEnv)
	}
	return LoadConfig(dir)
}

// ConfigFromViper validates the configuration held by v. Relative kernel paths are resolved
// from the directory of the configuration file, if any.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Kernels:    v.GetStringSlice("kernels.files"),
		LogLevel:   v.GetString("log.level"),
		LogFile:    v.GetString("log.file"),
		MaxKernels: v.GetInt("pool.max_kernels"),
		LT: LightTimeParams{
			MaxIterations: v.GetInt("lighttime.lt.max_iterations"),
			Tolerance:     v.GetFloat64("lighttime.lt.tolerance"),
		},
		CN: LightTimeParams{
			MaxIterations: v.GetInt("lighttime.cn.max_iterations"),
			Tolerance:     v.GetFloat64("lighttime.cn.tolerance"),
		},
	}
	if used := v.ConfigFileUsed(); used != "" {
		base := filepath.Dir(used)
		for i, k := range c.Kernels {
			if !filepath.IsAbs(k) {
				c.Kernels[i] = filepath.Join(base, k)
			}
		}
	}
	if c.MaxKernels < 1 {
		return Config{}, fmt.Errorf("pool.max_kernels must be positive, got %d", c.MaxKernels)
	}
	for name, p := range map[string]LightTimeParams{"lt": c.LT, "cn": c.CN} {
		if p.MaxIterations < 1 || !(p.Tolerance > 0) {
			return Config{}, fmt.Errorf("lighttime.%s: invalid iteration bounds %+v", name, p)
		}
	}
	return c, nil
}

// PoolOptions returns the pool options of this configuration.
func (c Config) PoolOptions(logger log.Logger) []PoolOption {
	return []PoolOption{WithMaxKernels(c.MaxKernels), WithLogger(logger)}
}

// SolverOptions returns the solver options of this configuration.
func (c Config) SolverOptions(logger log.Logger) []SolverOption {
	return []SolverOption{
		WithLightTime(CorrLT, c.LT.MaxIterations, c.LT.Tolerance),
		WithLightTime(CorrCN, c.CN.MaxIterations, c.CN.Tolerance),
		WithSolverLogger(logger),
	}
}
