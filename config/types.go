package config

import (
	"sync"

	"github.com/spf13/viper"
)

type ConfigInterface interface {
	Bind(instance any) error
	BindWithDefaults(instance any) error
	Get(key string) any
	Set(key string, value any)
}

// Config wraps the merged viper instance built from every discovered file.
type Config struct {
	instance *viper.Viper
	opts     ConfigOptions
	files    []string
	mu       sync.RWMutex
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
}
