package loader

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

const (
	LocalLoader = "local"
	HttpLoader  = "http"
)

// NewLoader 资源加载器，path 带 http(s):// 前缀时走 HttpLoader
func NewLoader(defaultType string) *Loader {
	l := &Loader{
		defaultType:        defaultType,
		assetTypeToParser:  make(map[string]util.BytesToAnyErr),
		loaderTypeToLoader: make(map[string]util.StrToBytesErr),
	}
	l.BindLoader(LocalLoader, func(path string) ([]byte, *util.Err) {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return nil, util.NewErr(util.EcIo, util.M{
				"path":  path,
				"error": err.Error(),
			})
		}
		return bytes, nil
	})
	l.BindLoader(HttpLoader, func(path string) ([]byte, *util.Err) {
		res, err := http.Get(path)
		if err != nil {
			return nil, util.NewErr(util.EcIo, util.M{
				"path":  path,
				"error": err.Error(),
			})
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, util.NewErr(util.EcIo, util.M{
				"path":   path,
				"status": res.StatusCode,
			})
		}
		bytes, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, util.NewErr(util.EcIo, util.M{
				"path":  path,
				"error": err.Error(),
			})
		}
		return bytes, nil
	})
	return l
}

type Loader struct {
	mtx                sync.RWMutex
	defaultType        string
	assetTypeToParser  map[string]util.BytesToAnyErr
	loaderTypeToLoader map[string]util.StrToBytesErr
}

func (l *Loader) BindParser(assetType string, parser util.BytesToAnyErr) {
	l.mtx.Lock()
	l.assetTypeToParser[assetType] = parser
	l.mtx.Unlock()
}

func (l *Loader) BindLoader(loaderType string, loader util.StrToBytesErr) {
	l.mtx.Lock()
	l.loaderTypeToLoader[loaderType] = loader
	l.mtx.Unlock()
}

func (l *Loader) loaderType(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return HttpLoader
	}
	return l.defaultType
}

// Get 读取并解析单个资源
func (l *Loader) Get(assetType, path string) (any, *util.Err) {
	return l.GetWith(assetType, l.loaderType(path), path)
}

func (l *Loader) GetWith(assetType, loaderType, path string) (any, *util.Err) {
	l.mtx.RLock()
	parser, ok := l.assetTypeToParser[assetType]
	loader, ok2 := l.loaderTypeToLoader[loaderType]
	l.mtx.RUnlock()
	if !ok {
		return nil, util.NewErr(util.EcNotExist, util.M{
			"asset type": assetType,
		})
	}
	if !ok2 {
		return nil, util.NewErr(util.EcNotExist, util.M{
			"loader type": loaderType,
		})
	}
	bytes, err := loader(path)
	if err != nil {
		return nil, err
	}
	o, err := parser(bytes)
	if err != nil {
		err.AddParam("path", path)
		return nil, err
	}
	return o, nil
}

// Load 批量加载，失败的只记日志
func (l *Loader) Load(assetType string, action util.FnStrAny, paths ...string) {
	for _, path := range paths {
		o, err := l.Get(assetType, path)
		if err != nil {
			sprocket.Error(err)
			continue
		}
		action(path, o)
	}
}
