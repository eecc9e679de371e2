package global

import (
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 全局配置实例，启动时由 ConfigLoad 填充
// 大部分代码应使用注入的 internal/app.AppConfig；此处保留给
// 无法走依赖注入的底层组件（websocket 响应开关等）
var Config *config

type server struct {
	RunMode string `yaml:"run-mode" default:"release"`
}

type appSettings struct {
	// IsReturnSuccess 操作成功时是否回发确认消息
	IsReturnSuccess bool `yaml:"is-return-success" default:"false"`
}

type config struct {
	// File 配置文件路径，不序列化
	File   string      `yaml:"-"`
	Server server      `yaml:"server"`
	App    appSettings `yaml:"app"`
}

// ConfigLoad 从文件加载全局配置
func ConfigLoad(f string) (*config, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, err
	}
	realpath = filepath.Clean(realpath)

	c := new(config)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	Config = c
	return c, nil
}

// Save 保存配置到文件
func (c *config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}
