package utils

import (
	"github.com/hashicorp/go-uuid"
	jsoniter "github.com/json-iterator/go"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

// GenerateAPIToken 自动注册时为用户生成 API 访问令牌
func GenerateAPIToken() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	return "vgl_" + id, nil
}

func MapValuesToSlice[K comparable, V any](m map[K]V) []V {
	ret := make([]V, 0, len(m))
	for _, v := range m {
		ret = append(ret, v)
	}
	return ret
}
