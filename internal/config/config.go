package config

import "github.com/kelseyhightower/envconfig"

type APIConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// AWS / SQS
	AWSRegion          string `envconfig:"AWS_REGION" required:"true"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL" required:"true"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`

	// Relay + AI collaborators (empty endpoints mean dev mode / fallback)
	RelayEndpoint string  `envconfig:"RELAY_ENDPOINT"`
	RelayRPS      float64 `envconfig:"RELAY_RPS" default:"10"`
	RelayBurst    int     `envconfig:"RELAY_BURST" default:"20"`
	AIEndpoint    string  `envconfig:"AI_ENDPOINT"`
	AIAPIKey      string  `envconfig:"AI_API_KEY"`
	AIModel       string  `envconfig:"AI_MODEL" default:"gpt-4o-mini"`

	// Alert threshold for the daily delivery failure rate.
	FailureRateAlert float64 `envconfig:"FAILURE_RATE_ALERT" default:"0.25"`
}

type WorkerConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// Pool tuning; duration fields are Go duration strings, empty keeps the
	// pgxpool default.
	DBPoolMaxConns          int32  `envconfig:"DB_POOL_MAX_CONNS" default:"8"`
	DBPoolMinConns          int32  `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	DBPoolMaxConnLifetime   string `envconfig:"DB_POOL_MAX_CONN_LIFETIME"`
	DBPoolMaxConnIdleTime   string `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME"`
	DBPoolHealthCheckPeriod string `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD"`

	// AWS / SQS
	AWSRegion          string `envconfig:"AWS_REGION" required:"true"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL" required:"true"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`
	SQSWaitTime        int32  `envconfig:"SQS_WAIT_TIME" default:"20"`
	SQSMaxMsgs         int32  `envconfig:"SQS_MAX_MSGS" default:"10"`
	SQSVizTimeout      int32  `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"120"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"4"`

	// Relay
	RelayEndpoint string  `envconfig:"RELAY_ENDPOINT"`
	RelayRPS      float64 `envconfig:"RELAY_RPS" default:"10"`
	RelayBurst    int     `envconfig:"RELAY_BURST" default:"20"`

	FailureRateAlert float64 `envconfig:"FAILURE_RATE_ALERT" default:"0.25"`
}

type SchedulerConfig struct {
	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// AWS / SQS (due broadcasts are enqueued for the worker)
	AWSRegion          string `envconfig:"AWS_REGION" required:"true"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL" required:"true"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`

	PollInterval string `envconfig:"POLL_INTERVAL" default:"60s"`

	// Relay + AI (sequence steps transform and deliver inline)
	RelayEndpoint string  `envconfig:"RELAY_ENDPOINT"`
	RelayRPS      float64 `envconfig:"RELAY_RPS" default:"10"`
	RelayBurst    int     `envconfig:"RELAY_BURST" default:"20"`
	AIEndpoint    string  `envconfig:"AI_ENDPOINT"`
	AIAPIKey      string  `envconfig:"AI_API_KEY"`
	AIModel       string  `envconfig:"AI_MODEL" default:"gpt-4o-mini"`

	// Bounded retry for fully-failed sequence steps.
	MaxStepAttempts int `envconfig:"MAX_STEP_ATTEMPTS" default:"3"`

	FailureRateAlert float64 `envconfig:"FAILURE_RATE_ALERT" default:"0.25"`
}

func LoadAPI() APIConfig {
	var cfg APIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadWorker() WorkerConfig {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadScheduler() SchedulerConfig {
	var cfg SchedulerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
