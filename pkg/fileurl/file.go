// Package fileurl 提供文件路径相关的辅助函数
package fileurl

import (
	"os"
	"path/filepath"
)

// IsExist 判断路径是否存在
// 文件或目录存在均返回 true
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// IsDir 判断所给路径是否为目录
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CreatePath 为目标文件创建父目录
// dst 为文件路径，perm 为目录权限
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if IsExist(dir) {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// GetExePath 获取可执行文件所在目录
func GetExePath() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exePath)
}
