package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound 表示目录中不存在指定文件。
var ErrNotFound = errors.New("storage entry not found")

// Dir 指向一个已存在的存储目录。
type Dir struct {
	path string
}

// Ensure 以 path 为根创建（若不存在）并返回存储目录句柄。
func Ensure(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}
	return &Dir{path: abs}, nil
}

// Open 返回目录句柄但不创建目录，写入时才按需创建父目录。
func Open(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	return &Dir{path: abs}, nil
}

// Path 返回目录的绝对路径。
func (d *Dir) Path() string {
	return d.path
}

// Exists 表示 name 对应的普通文件是否存在。
func (d *Dir) Exists(name string) bool {
	filePath, err := d.entryPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}

// Read 读取整个文件内容，不存在时返回 ErrNotFound。
func (d *Dir) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := d.entryPath(name)
	if err != nil {
		return nil, err
	}

	unlock := locks.lock(filePath)
	defer unlock()

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	return os.ReadFile(filePath)
}

// Write 原子地替换 name 对应的文件。父目录缺失时会被创建。
func (d *Dir) Write(ctx context.Context, name string, body io.Reader) error {
	filePath, err := d.entryPath(name)
	if err != nil {
		return err
	}

	unlock := locks.lock(filePath)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".write-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// entryPath 拒绝逃逸出目录的相对路径。
func (d *Dir) entryPath(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if rel == "." || rel == "" || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage entry name %q", name)
	}
	return filepath.Join(d.path, rel), nil
}

// lockTable 以文件绝对路径为键串行化同一文件的读写，不同 Dir 句柄共享。
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

var locks = &lockTable{locks: make(map[string]*entryLock)}

func (t *lockTable) lock(key string) func() {
	t.mu.Lock()
	lock := t.locks[key]
	if lock == nil {
		lock = &entryLock{}
		t.locks[key] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
