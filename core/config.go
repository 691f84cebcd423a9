package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string
	Env      string
	Build    string
	Debug    bool
	TestMode bool

	Portal struct {
		BaseURL string
		Timeout time.Duration
	}

	// TokenRefreshInterval is how often the owner side re-fetches the rotating
	// token. It must stay below the token validity window of the issuing
	// service; confirm with that service before changing either side.
	TokenRefreshInterval time.Duration

	// NotificationTimeout is how long a transient notification stays visible
	// before it auto-expires.
	NotificationTimeout time.Duration

	RollbarToken string
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("build", "dev")
	v.SetDefault("portalBaseURL", "http://localhost:8000/v1")
	v.SetDefault("portalTimeout", 15*time.Second)
	v.SetDefault("tokenRefreshInterval", 10*time.Second)
	v.SetDefault("notificationTimeout", 5*time.Second)
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:              v.GetString("appName"),
		Env:                  env,
		Build:                v.GetString("build"),
		Debug:                v.GetBool("debug"),
		TestMode:             v.GetBool("testMode"),
		TokenRefreshInterval: v.GetDuration("tokenRefreshInterval"),
		NotificationTimeout:  v.GetDuration("notificationTimeout"),
		RollbarToken:         v.GetString("rollbarToken"),
	}
	conf.Portal.BaseURL = v.GetString("portalBaseURL")
	conf.Portal.Timeout = v.GetDuration("portalTimeout")
	return conf
}
