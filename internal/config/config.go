package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/transport"
)

type Config struct {
	TCPAddr      string
	ReadBuffer   int
	Framing      string
	PrefixPolicy string
	WriteTimeout time.Duration

	WSAddr      string
	MetricsAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	NodeID        string

	LogLevel    string
	LogEncoding string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func Load() *Config {
	return &Config{
		TCPAddr:       getEnv("CHAT_TCP_ADDR", ":8000"),
		ReadBuffer:    getInt("CHAT_READ_BUFFER", 1024),
		Framing:       getEnv("CHAT_FRAMING", transport.FramingRead),
		PrefixPolicy:  getEnv("CHAT_PREFIX_POLICY", "name"),
		WriteTimeout:  getDuration("CHAT_WRITE_TIMEOUT", 0),
		WSAddr:        getEnv("CHAT_WS_ADDR", ""),
		MetricsAddr:   getEnv("CHAT_METRICS_ADDR", ""),
		RedisAddr:     getEnv("CHAT_REDIS_ADDR", ""),
		RedisPassword: getEnv("CHAT_REDIS_PASSWORD", ""),
		RedisDB:       getInt("CHAT_REDIS_DB", 0),
		RedisStream:   getEnv("CHAT_REDIS_STREAM", "chat:relay"),
		NodeID:        getEnv("CHAT_NODE_ID", uuid.NewString()),
		LogLevel:      getEnv("CHAT_LOG_LEVEL", "info"),
		LogEncoding:   getEnv("CHAT_LOG_ENCODING", "console"),
	}
}

// Validate 检查取值范围，启动前调用
func (c *Config) Validate() error {
	if c.TCPAddr == "" {
		return fmt.Errorf("tcp addr is empty")
	}
	if c.ReadBuffer <= 0 {
		return fmt.Errorf("read buffer must be positive: %d", c.ReadBuffer)
	}
	if c.Framing != transport.FramingRead && c.Framing != transport.FramingLine {
		return fmt.Errorf("unknown framing: %s", c.Framing)
	}
	if _, err := chat.ParsePrefixPolicy(c.PrefixPolicy); err != nil {
		return err
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must not be negative: %s", c.WriteTimeout)
	}
	if c.WSAddr != "" && c.WSAddr == c.TCPAddr {
		return fmt.Errorf("ws addr must differ from tcp addr: %s", c.WSAddr)
	}
	if c.RedisAddr != "" && c.RedisStream == "" {
		return fmt.Errorf("redis stream is empty")
	}
	return nil
}

// Policy 返回解析后的前缀策略，需先通过 Validate
func (c *Config) Policy() chat.PrefixPolicy {
	p, _ := chat.ParsePrefixPolicy(c.PrefixPolicy)
	return p
}
