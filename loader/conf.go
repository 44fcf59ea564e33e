package loader

import (
	"path"
	"strings"

	"github.com/spf13/viper"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

const (
	ConfLocalLoader = "local"
	ConfPathSep     = "|"
)

type ConfLoader func(path string, v *viper.Viper) *util.Err

var (
	_TypeToLoader   = make(map[string]ConfLoader)
	_ConfPathParser = func(path string) (string, string, *util.Err) {
		ss := strings.Split(path, ConfPathSep)
		if len(ss) != 2 {
			return "", "", util.NewErr(util.EcParamsErr, util.M{
				"path": path,
			})
		}
		return ss[0], ss[1], nil
	}
	_ConfRoot string
)

func init() {
	SetConfLoader(ConfLocalLoader, confLocalLoader)
}

// SetConfRoot 默认是程序执行目录
func SetConfRoot(p string) {
	_ConfRoot = p
}

func confRoot() string {
	if _ConfRoot == "" {
		_ConfRoot = util.WorkDir()
	}
	return _ConfRoot
}

func SetConfPathParser(parser util.StrToStr2Err) {
	_ConfPathParser = parser
}

// LoadConf 按顺序加载，后面的覆盖前面的
func LoadConf(conf any, paths ...string) *util.Err {
	l := len(paths)
	if l == 0 {
		return util.NewErr(util.EcParamsErr, util.M{
			"error": "no conf path",
		})
	}
	vpr := viper.New()
	vpr.SetConfigType("yaml")
	loaded := 0
	for i := 0; i < l; i++ {
		p := paths[i]
		loaderType, filePath, err := _ConfPathParser(p)
		if err != nil {
			sprocket.Warn(err)
			continue
		}
		loader, ok := _TypeToLoader[loaderType]
		if !ok {
			sprocket.Error2(util.EcNotExist, util.M{
				"loader type": loaderType,
			})
			continue
		}
		err = loader(filePath, vpr)
		if err != nil {
			sprocket.Warn(err)
			continue
		}
		loaded++
		if i < l-1 {
			for k, v := range vpr.AllSettings() {
				vpr.SetDefault(k, v)
			}
		}
	}
	if loaded == 0 {
		return util.NewErr(util.EcNotExist, util.M{
			"paths": paths,
		})
	}
	e := vpr.Unmarshal(conf)
	if e != nil {
		return util.WrapErr(util.EcUnmarshallErr, e)
	}
	return nil
}

func SetConfLoader(typ string, loader ConfLoader) {
	_TypeToLoader[typ] = loader
}

func GetConfLoader(typ string) ConfLoader {
	return _TypeToLoader[typ]
}

func confLocalLoader(p string, v *viper.Viper) *util.Err {
	dir, fn := path.Split(p)
	if dir == "" || !path.IsAbs(dir) {
		v.AddConfigPath(path.Join(confRoot(), dir))
	} else {
		v.AddConfigPath(dir)
	}
	ext := path.Ext(fn)
	if ext == "" {
		return util.NewErr(util.EcParamsErr, util.M{
			"error": "missing extension",
			"path":  p,
		})
	}
	v.SetConfigName(fn[:len(fn)-len(ext)])
	ext = ext[1:]
	if ext == "yml" {
		ext = "yaml"
	}
	v.SetConfigType(ext)
	err := v.ReadInConfig()
	if err != nil {
		return util.NewErr(util.EcIo, util.M{
			"error": err.Error(),
			"path":  p,
		})
	}
	return nil
}

func ConvertConfLocalPath(paths ...string) []string {
	res := make([]string, len(paths))
	for i, p := range paths {
		res[i] = ConfLocalLoader + ConfPathSep + p
	}
	return res
}
