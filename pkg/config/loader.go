package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo 集合服務端口 from .env
type EnvInfo struct {
	// image name
	APIGateway    string
	MemberService string
	ChatService   string
	ExportWorker  string

	// service ports
	APIGatewayPort    string
	MemberServicePort string
	ChatServicePort   string

	// service yaml path
	APIGatewayYAMLPath    string
	MemberServiceYAMLPath string
	ChatServiceYAMLPath   string
	ExportWorkerYAMLPath  string

	// service log path
	APIGatewayLogPath    string
	MemberServiceLogPath string
	ChatServiceLogPath   string
	ExportWorkerLogPath  string

	// JWTSecret shared by member_service (sign) and chat_service (verify)
	JWTSecret string
}

// EnvConfig 集合服務端口
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {
		loadDotEnv()

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			APIGateway:    os.Getenv("API_GATEWAY"),
			MemberService: os.Getenv("MEMBER_SERVICE"),
			ChatService:   os.Getenv("CHAT_SERVICE"),
			ExportWorker:  os.Getenv("EXPORT_WORKER"),

			APIGatewayPort:    os.Getenv("API_GATEWAY_PORT"),
			MemberServicePort: os.Getenv("MEMBER_SERVICE_PORT"),
			ChatServicePort:   os.Getenv("CHAT_SERVICE_PORT"),

			APIGatewayYAMLPath:    os.Getenv("API_GATEWAY_YAML"),
			MemberServiceYAMLPath: os.Getenv("MEMBER_SERVICE_YAML"),
			ChatServiceYAMLPath:   os.Getenv("CHAT_SERVICE_YAML"),
			ExportWorkerYAMLPath:  os.Getenv("EXPORT_WORKER_YAML"),

			APIGatewayLogPath:    os.Getenv("API_GATEWAY_LOG"),
			MemberServiceLogPath: os.Getenv("MEMBER_SERVICE_LOG"),
			ChatServiceLogPath:   os.Getenv("CHAT_SERVICE_LOG"),
			ExportWorkerLogPath:  os.Getenv("EXPORT_WORKER_LOG"),

			JWTSecret: os.Getenv("JWT_SECRET"),
		}
	})

	return envConfig
}

func loadDotEnv() {
	path, err := GetPath(".env", 5)
	if err != nil {
		log.Printf("Warning: Could not get .env path: %v", err)
		return
	}

	if err := godotenv.Load(path); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
}

// IsProduction check run env
func IsProduction() bool {
	return env == "production"
}

// IsLocal check run env
func IsLocal() bool {
	return env == "local"
}

// LoadConfig 加載配置
func LoadConfig[T any](serviceName string, configPath string) T {
	cfg, err := ReadConfig[T](serviceName, configPath)
	if err != nil {
		log.Fatalf("load config [%s] err: %v", serviceName, err)
	}
	return cfg
}

// ReadConfig 讀取 yaml 並替換 ${} 環境變數
func ReadConfig[T any](serviceName string, configPath string) (T, error) {
	var cfg T

	v := viper.New()
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 自動讀取環境變數
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}

	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		return cfg, fmt.Errorf("reading raw config file: %w", err)
	}

	// 替換 ${} 占位符為環境變數的值
	expandedConfig := os.ExpandEnv(string(rawConfig))
	if err := v.ReadConfig(bytes.NewBufferString(expandedConfig)); err != nil {
		return cfg, fmt.Errorf("reading expanded config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// GetRedisSetting get redis setting from .env
func GetRedisSetting() (string, []string) {
	loadDotEnv()

	var (
		masterName    string
		sentinelAddrs []string
	)

	// 动态解析 REDIS_SENTINEL*_IP 和端口
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]

		if strings.HasPrefix(key, "REDIS_SENTINEL") && strings.HasSuffix(key, "_IP") {
			portKey := strings.Replace(key, "_IP", "_PORT", 1)
			port := os.Getenv(portKey)
			if port != "" {
				sentinelAddrs = append(sentinelAddrs, fmt.Sprintf("%s:%s", value, port))
			}
		}
	}

	masterName = os.Getenv("REDIS_MASTER_NAME")
	if masterName == "" {
		masterName = "mymaster"
	}

	return masterName, sentinelAddrs
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + " can't find path")
}
