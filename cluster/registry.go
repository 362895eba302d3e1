package cluster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateIdentity 表示同名模块已注册，属于编程错误而非可恢复的运行时状态。
var ErrDuplicateIdentity = errors.New("cluster already registered")

// LoadContext 是 Record 对其加载上下文的最小视图，具体实现见 loader 包。
type LoadContext interface {
	Name() string
	Dir() string
}

// Record 仅在实例完整构造并通过能力校验后创建。
type Record struct {
	Identity   Identity
	StorageDir string
	Context    LoadContext
	Instance   Cluster
}

// Registry 以名称（大小写不敏感）索引模块，并保留注册顺序供生命周期遍历。
type Registry struct {
	records map[string]*Record
	ordered []*Record
}

// NewRegistry 返回空注册表。
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Register 添加记录，重名时返回 ErrDuplicateIdentity。
func (r *Registry) Register(rec Record) error {
	if rec.Instance == nil {
		return errors.New("cluster instance is required")
	}
	key := normalizeKey(rec.Identity.Name)
	if key == "" {
		return errors.New("cluster name is required")
	}
	if _, exists := r.records[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, rec.Identity.Name)
	}
	stored := rec
	r.records[key] = &stored
	r.ordered = append(r.ordered, &stored)
	return nil
}

// MustRegister 在注册失败时 panic。
func (r *Registry) MustRegister(rec Record) {
	if err := r.Register(rec); err != nil {
		panic(err)
	}
}

// Get 按名称查找记录。
func (r *Registry) Get(name string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	rec, ok := r.records[normalizeKey(name)]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// All 按注册顺序返回全部记录的副本。
func (r *Registry) All() []Record {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}
	result := make([]Record, len(r.ordered))
	for i, rec := range r.ordered {
		result[i] = *rec
	}
	return result
}

// Clusters 按注册顺序返回模块实例。
func (r *Registry) Clusters() []Cluster {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}
	result := make([]Cluster, len(r.ordered))
	for i, rec := range r.ordered {
		result[i] = rec.Instance
	}
	return result
}

// Len 返回已注册模块数量。
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
