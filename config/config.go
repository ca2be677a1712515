package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug                    bool   `envconfig:"debug"`
	Port                     int    `envconfig:"port" default:"8080"`
	Env                      string `envconfig:"env" default:"dev"`
	LogLevel                 string `envconfig:"log_level" default:"info"`
	PostgresHost             string `envconfig:"postgres_host" default:"localhost"`
	PostgresUser             string `envconfig:"postgres_user" default:"postgres"`
	PostgresDB               string `envconfig:"postgres_db" default:"challanx"`
	PostgresPort             int    `envconfig:"postgres_port" default:"5432"`
	PostgresPassword         string `envconfig:"postgres_password"`
	JWTSecret                string `envconfig:"jwt_secret"`
	RedisURL                 string `envconfig:"redis_url"`
	AWSRegion                string `envconfig:"aws_region"`
	AWSAccessKeyID           string `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey       string `envconfig:"aws_secret_access_key"`
	AWSBucket                string `envconfig:"aws_bucket"`
	FirebaseCredentials      string `envconfig:"firebase_credentials"`
	AccessControlAllowOrigin string `envconfig:"access_control_allow_origin"`

	PresignTTL       time.Duration `envconfig:"presign_ttl" default:"15m"`
	DetectionURL     string        `envconfig:"detection_url"`
	PlateURL         string        `envconfig:"plate_url"`
	DetectionTimeout time.Duration `envconfig:"detection_timeout" default:"10s"`
	DetectOnCreate   bool          `envconfig:"detect_on_create" default:"true"`

	// Verification and payout policy. The defaults are the values the
	// product launched with.
	AutoVerifyThreshold float64 `envconfig:"auto_verify_threshold" default:"0.8"`
	CommunityUpvotes    int     `envconfig:"community_upvotes" default:"5"`
	RewardRate          string  `envconfig:"reward_rate" default:"0.10"`
	BaseRewardPoints    int     `envconfig:"base_reward_points" default:"10"`
	VoteRateLimit       int     `envconfig:"vote_rate_limit" default:"30"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("challanx", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
