package deployer

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultRegion         = "eu-west-2"
	defaultNamePrefix     = "xgboost"
	defaultFramework      = "xgboost"
	defaultImageVersion   = "latest"
	defaultVariantName    = "mlops"
	defaultMemorySizeInMB = 4096
	defaultMaxConcurrency = 1
)

type Config struct {
	Region              string
	Environment         string
	AccountID           string
	NamePrefix          string
	Framework           string
	ImageVersion        string
	VariantName         string
	MemorySizeInMB      int64
	MaxConcurrency      int64
	ExecutionRoleARN    string
	EvaluationQueueName string
}

// ParamStore reads named values from the parameter store.
type ParamStore interface {
	Get(name string) (string, error)
}

// ConfigFromEnv resolves configuration from the environment, falling back to
// the parameter store for the execution role and evaluation queue name when
// they are not set directly.
func ConfigFromEnv(store ParamStore) (Config, error) {
	cfg := Config{
		Region:       envOrDefault("AWS_REGION", defaultRegion),
		Environment:  os.Getenv("SERVERLESS_ENVIRONMENT"),
		AccountID:    os.Getenv("AWS_ACCOUNT_ID"),
		NamePrefix:   envOrDefault("MODEL_NAME_PREFIX", defaultNamePrefix),
		Framework:    envOrDefault("MODEL_FRAMEWORK", defaultFramework),
		ImageVersion: envOrDefault("MODEL_IMAGE_VERSION", defaultImageVersion),
		VariantName:  envOrDefault("VARIANT_NAME", defaultVariantName),
	}

	if cfg.AccountID == "" {
		return Config{}, fmt.Errorf("environment variable AWS_ACCOUNT_ID is required")
	}

	var err error
	if cfg.MemorySizeInMB, err = envOrDefaultInt64("MEMORY_SIZE_IN_MB", defaultMemorySizeInMB); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrency, err = envOrDefaultInt64("MAX_CONCURRENCY", defaultMaxConcurrency); err != nil {
		return Config{}, err
	}

	cfg.ExecutionRoleARN = os.Getenv("SAGEMAKER_ROLE_ARN")
	if cfg.ExecutionRoleARN == "" {
		cfg.ExecutionRoleARN, err = store.Get(fmt.Sprintf("mlops-%s-%s-sagemaker-execution-role", cfg.Region, cfg.Environment))
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve execution role: %v", err)
		}
	}

	cfg.EvaluationQueueName = os.Getenv("MODEL_EVALUATION_QUEUE_NAME")
	if cfg.EvaluationQueueName == "" {
		cfg.EvaluationQueueName, err = store.Get(fmt.Sprintf("mlops-%s-%s-model-evaluation", cfg.Region, cfg.Environment))
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve evaluation queue name: %v", err)
		}
	}

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt64(name string, fallback int64) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %v", name, err)
	}
	return n, nil
}
