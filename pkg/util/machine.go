package util

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var machineIDOnce struct {
	sync.Once
	id string
}

// GetMachineID 获取当前机器的唯一标识符
// Token 签名密钥会混入该值，使签发的 Token 与部署机器绑定
// 获取失败时回退到主机名，结果在进程内缓存
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ID(); err == nil && id != "" {
			machineIDOnce.id = id
			return
		}
		if host, err := os.Hostname(); err == nil {
			machineIDOnce.id = host
		}
	})
	return machineIDOnce.id
}
