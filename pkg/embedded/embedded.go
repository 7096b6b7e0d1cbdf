// Package embedded 提供嵌入资源的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让其他包可以访问嵌入的资源（内置皮肤、默认配置、图标）。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var (
	assetsFS    fs.FS
	dataFS      fs.FS
	initialized bool
)

var errNotInitialized = errors.New("embedded package not initialized, call Init() first")

// Init 初始化资源文件系统
// 必须在 main() 开始时、任何资源加载之前调用
//
// 参数：
//   - assets: 以项目根目录为根、包含 assets/ 的文件系统
//   - data: 以项目根目录为根、包含 data/ 的文件系统
func Init(assets, data fs.FS) {
	assetsFS = assets
	dataFS = data
	initialized = true
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// resolve 根据路径前缀选择文件系统
// 路径必须以 "assets/" 或 "data/" 开头
func resolve(path string) (fs.FS, string, error) {
	if !initialized {
		return nil, "", errNotInitialized
	}

	// 标准化路径分隔符为正斜杠（embed.FS 使用正斜杠），并移除可能的 "./" 前缀
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	switch {
	case path == "assets" || strings.HasPrefix(path, "assets/"):
		return assetsFS, path, nil
	case path == "data" || strings.HasPrefix(path, "data/"):
		return dataFS, path, nil
	}
	return nil, "", fmt.Errorf("unknown resource path prefix: %s (must start with 'assets/' or 'data/')", path)
}

// Open 打开嵌入的文件
func Open(path string) (fs.File, error) {
	fsys, path, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fsys.Open(path)
}

// ReadFile 读取嵌入的文件内容
func ReadFile(path string) ([]byte, error) {
	fsys, path, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, path)
}

// Exists 检查文件是否存在
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Glob 匹配嵌入的文件
func Glob(pattern string) ([]string, error) {
	fsys, pattern, err := resolve(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(fsys, pattern)
}

// ReadDir 读取目录内容
func ReadDir(path string) ([]fs.DirEntry, error) {
	fsys, path, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(fsys, path)
}

// Sub 返回指定目录的子文件系统
func Sub(dir string) (fs.FS, error) {
	fsys, dir, err := resolve(dir)
	if err != nil {
		return nil, err
	}
	return fs.Sub(fsys, dir)
}

// Stat 获取文件信息
func Stat(path string) (fs.FileInfo, error) {
	file, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Stat()
}

// FS 返回合并 assets/ 与 data/ 的只读文件系统视图
// 可直接传给 skin.LoadManifest、config.LoadAppConfigFS 等以 fs.FS 为参数的函数
func FS() fs.FS {
	return combinedFS{}
}

type combinedFS struct{}

func (combinedFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	file, err := Open(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return file, err
}
