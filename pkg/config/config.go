package config

import "time"

// APIGateway definition api_gateway YAML structure
type APIGateway struct {
	Port          string        `mapstructure:"port"`
	MemberService ServiceConfig `mapstructure:"member"`
}

// Member definition member_service YAML structure
type Member struct {
	Port       string        `mapstructure:"port"`
	IP         string        `mapstructure:"ip"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	PostgreSQL  DatabaseConfig `mapstructure:"pg"`
	RedisMember RedisConfig    `mapstructure:"redis"`
}

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port"`
	// Storage mongo | memory
	Storage string `mapstructure:"storage"`

	Realtime      RealtimeConfig `mapstructure:"realtime"`
	MongoSQL      DatabaseConfig `mapstructure:"mongo"`
	Redis         RedisConfig    `mapstructure:"redis"`
	Kafka         KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ      RabbitMQConfig `mapstructure:"rabbitmq"`
	MinIO         MinIOConfig    `mapstructure:"minio"`
	MemberService ServiceConfig  `mapstructure:"member"`
}

// ExportWorker definition export_worker YAML structure
type ExportWorker struct {
	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
}

// RealtimeConfig websocket session timings
type RealtimeConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	OutboundBuffer int           `mapstructure:"outbound_buffer"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	PresenceTTL    time.Duration `mapstructure:"presence_ttl"`
	NodeID         string        `mapstructure:"node_id"`
}

// ServiceConfig definition service port & name
type ServiceConfig struct {
	Port string `mapstructure:"service_port"`
	Name string `mapstructure:"service_name"`
	IP   string `mapstructure:"service_ip"`
}

// Addr return grpc dial address
func (s ServiceConfig) Addr() string {
	host := s.IP
	if host == "" {
		host = s.Name
	}
	return host + ":" + s.Port
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting, empty brokers disable event stream
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	URL           string `mapstructure:"url"`
	Queue         string `mapstructure:"queue"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket_name"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// WithDefaults fill zero realtime timings
func (r RealtimeConfig) WithDefaults() RealtimeConfig {
	if r.PingInterval <= 0 {
		r.PingInterval = 30 * time.Second
	}
	if r.PongWait <= 0 {
		r.PongWait = 75 * time.Second
	}
	if r.WriteWait <= 0 {
		r.WriteWait = 5 * time.Second
	}
	if r.OutboundBuffer <= 0 {
		r.OutboundBuffer = 64
	}
	if r.CallTimeout <= 0 {
		r.CallTimeout = 45 * time.Second
	}
	if r.PresenceTTL <= 0 {
		r.PresenceTTL = 2 * r.PongWait
	}
	return r
}
