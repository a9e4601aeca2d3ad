package config

import "time"

// StorageConfig contains S3-compatible object storage configuration for the
// file browser. Defaults match a local MinIO instance.
type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"   envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"BUCKET"     envDefault:"knowledgebase"`
	Region    string `env:"REGION"     envDefault:""`
	UseSSL    bool   `env:"USE_SSL"    envDefault:"false"`

	// PresignExpiry is how long presigned download URLs stay valid.
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" envDefault:"15m"`
}
