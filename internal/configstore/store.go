// Package configstore 负责宿主与 cluster 配置的加载与持久化。
//
// 每个存储目录下仅有一个 config.json；首次加载时写入默认值，之后的保存总是整体覆盖。
package configstore

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/openstar/openstar/internal/storage"
)

// FileName 是每个存储目录下配置文件的固定文件名。
const FileName = "config.json"

// Defaulter 由需要非零默认值的配置类型实现。
type Defaulter interface {
	SetDefaults()
}

// Source 描述一个拥有存储目录与（可能为空的）配置的对象，宿主与 cluster 都满足该接口。
type Source interface {
	StorageDirectory() string
	Config() any
}

// ConfigError 表示已有配置文件无法解码为可用的值。
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("无法加载配置 %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var errNoValue = errors.New("config document is empty or not an object")

// LoadContext 读取 dir 下的配置；文件不存在时生成默认值、落盘并返回。
func LoadContext[T any](ctx context.Context, dir string) (*T, error) {
	d, err := storage.Open(dir)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Exists(FileName) {
		value := newDefault[T]()
		if err := write(ctx, d, value); err != nil {
			return nil, err
		}
		return value, nil
	}

	raw, err := d.Read(ctx, FileName)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	value, err := decode[T](raw)
	if err != nil {
		return nil, &ConfigError{Path: filepath.Join(d.Path(), FileName), Err: err}
	}
	return value, nil
}

// Load 是 LoadContext 的阻塞便捷版本。
func Load[T any](dir string) (*T, error) {
	return LoadContext[T](context.Background(), dir)
}

// SaveContext 将 src 当前的配置整体写回其存储目录；配置为空时不做任何事。
func SaveContext(ctx context.Context, src Source) error {
	if src == nil {
		return errors.New("config source is nil")
	}
	value := src.Config()
	if isNil(value) {
		return nil
	}
	d, err := storage.Open(src.StorageDirectory())
	if err != nil {
		return err
	}
	return write(ctx, d, value)
}

// Save 是 SaveContext 的阻塞便捷版本。
func Save(src Source) error {
	return SaveContext(context.Background(), src)
}

func newDefault[T any]() *T {
	value := new(T)
	if d, ok := any(value).(Defaulter); ok {
		d.SetDefaults()
	}
	return value
}

// decode 在默认值之上覆盖文件中出现的字段：缺失字段保持默认，多余字段被忽略，
// 出现的字段整体替换默认值（切片、map 不与默认值合并）。
func decode[T any](raw []byte) (*T, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNoValue
	}

	value := newDefault[T]()
	resetPresent(reflect.ValueOf(value).Elem(), doc)
	if err := json.Unmarshal(raw, value); err != nil {
		return nil, err
	}
	return value, nil
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// resetPresent 把 doc 中出现的字段清零；json 解码进非空 map 时会保留原有键。
func resetPresent(v reflect.Value, doc map[string]json.RawMessage) {
	if v.Kind() != reflect.Struct || decodesItself(v) {
		v.Set(reflect.Zero(v.Type()))
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		fv := v.Field(i)
		if field.Anonymous && name == "" {
			if embedded, ok := structValue(fv); ok {
				resetPresent(embedded, doc)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		for key, child := range doc {
			if strings.EqualFold(key, name) {
				resetValue(fv, child)
				break
			}
		}
	}
}

func resetValue(v reflect.Value, raw json.RawMessage) {
	target, ok := structValue(v)
	if !ok {
		for v.Kind() == reflect.Pointer && !v.IsNil() {
			v = v.Elem()
		}
		if v.CanSet() {
			v.Set(reflect.Zero(v.Type()))
		}
		return
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || decodesItself(target) {
		target.Set(reflect.Zero(target.Type()))
		return
	}
	resetPresent(target, doc)
}

// structValue 解引用非空指针，返回可设置的结构体值。
func structValue(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.Kind() == reflect.Struct && v.CanSet()
}

func decodesItself(v reflect.Value) bool {
	pt := reflect.PointerTo(v.Type())
	return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

func write(ctx context.Context, d *storage.Dir, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := d.Write(ctx, FileName, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	return nil
}

// isNil 同时识别被装进 interface 的 nil 指针，例如 (*Config)(nil)。
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
