package api

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slug 转小写、空格替换为 '-'，并去掉标点与非 ASCII 字符（'-' 与 '_' 除外）。
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case isSlugDropped(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LowerFirst 将首字母转为小写，其余保持不变。
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// IsSuccessStatusCode 表示状态码是否属于 2xx。
func IsSuccessStatusCode(code int) bool {
	return code >= 200 && code < 300
}

func isSlugDropped(r rune) bool {
	return (r >= '!' && r <= ',') ||
		(r >= '.' && r <= '/') ||
		(r >= ':' && r <= '@') ||
		(r >= '[' && r <= '^') ||
		r == '`' ||
		r >= '{'
}
