package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RandomInt32 生成一个安全的随机32位整数
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

// GenerateAppointmentCode 生成8位预约码，用于查询和二维码核验
func GenerateAppointmentCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// GenerateWalkInEmail 为未提供邮箱的临时来访人员生成占位邮箱
func GenerateWalkInEmail() string {
	return fmt.Sprintf("visitor_%d@walkin.local", time.Now().UnixMilli())
}

// IsWalkInEmail 判断邮箱是否为占位邮箱
func IsWalkInEmail(email string) bool {
	return strings.HasSuffix(email, "@walkin.local")
}
