package util

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost 密码哈希成本因子
const bcryptCost = 10

// GeneratePasswordHash 生成密码的 bcrypt 哈希
func GeneratePasswordHash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash 验证密码与哈希是否匹配
func CheckPasswordHash(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
