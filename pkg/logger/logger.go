// Package logger 统一的日志入口（logrus + lumberjack 轮转）。
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例
	Logger = logrus.New()

	initOnce sync.Once
)

// Config 日志配置
type Config struct {
	// Level 日志级别: debug, info, warn, error
	Level string

	// OutputFile 日志文件路径（为空则只输出到控制台）
	OutputFile string

	// MaxSize 单个日志文件最大大小（MB）
	MaxSize int

	// MaxBackups 保留的旧日志文件数量
	MaxBackups int

	// MaxAge 旧日志文件保留天数
	MaxAge int

	// Compress 是否压缩旧日志文件
	Compress bool
}

// Init 初始化全局日志（重复调用只生效一次）
func Init(cfg Config) {
	initOnce.Do(func() {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})

		if cfg.OutputFile != "" {
			rotator := &lumberjack.Logger{
				Filename:   cfg.OutputFile,
				MaxSize:    orDefault(cfg.MaxSize, 100),
				MaxBackups: orDefault(cfg.MaxBackups, 5),
				MaxAge:     orDefault(cfg.MaxAge, 14),
				Compress:   cfg.Compress,
			}
			Logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
		}
	})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Component 返回带组件名的日志入口
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
