package sprocket

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
)

type varItem struct {
	name  string
	usage string
	val   any
}

type Var interface {
	int | int64 | float64 | bool | string
}

var (
	_VarMap = ds.NewKSet[string, *varItem](8, func(item *varItem) string {
		return item.name
	})
)

// AddVar 注册命令行参数，同名环境变量(大写，- 换成 _)优先
func AddVar[T Var](name string, def T, usage string) {
	_VarMap.Set(&varItem{
		name:  name,
		val:   def,
		usage: usage,
	})
}

func ParseVar() {
	parseFlag(flag.CommandLine, os.Args[1:])
	parseEnv()
}

// ParseVarWith 测试用
func ParseVarWith(fs *flag.FlagSet, args []string) {
	parseFlag(fs, args)
	parseEnv()
}

func parseFlag(fs *flag.FlagSet, args []string) {
	m := make(map[string]any, _VarMap.Count())
	for _, item := range _VarMap.Values() {
		switch d := item.val.(type) {
		case int:
			m[item.name] = fs.Int(item.name, d, item.usage)
		case int64:
			m[item.name] = fs.Int64(item.name, d, item.usage)
		case float64:
			m[item.name] = fs.Float64(item.name, d, item.usage)
		case bool:
			m[item.name] = fs.Bool(item.name, d, item.usage)
		case string:
			m[item.name] = fs.String(item.name, d, item.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		Warn3(util.EcParamsErr, err)
		return
	}
	for _, item := range _VarMap.Values() {
		switch d := m[item.name].(type) {
		case *int:
			item.val = *d
		case *int64:
			item.val = *d
		case *float64:
			item.val = *d
		case *bool:
			item.val = *d
		case *string:
			item.val = *d
		}
	}
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func parseEnv() {
	for _, item := range _VarMap.Values() {
		v, ok := os.LookupEnv(envName(item.name))
		if !ok {
			continue
		}
		var err error
		switch item.val.(type) {
		case int:
			var i int
			i, err = strconv.Atoi(v)
			if err == nil {
				item.val = i
			}
		case int64:
			var i int64
			i, err = strconv.ParseInt(v, 10, 64)
			if err == nil {
				item.val = i
			}
		case float64:
			var f float64
			f, err = strconv.ParseFloat(v, 64)
			if err == nil {
				item.val = f
			}
		case bool:
			item.val = strings.ToLower(v) == "true"
		case string:
			item.val = v
		}
		if err != nil {
			Warn2(util.EcParseErr, util.M{
				"name":  item.name,
				"value": v,
				"error": err.Error(),
			})
		}
	}
}

func GetVar[T Var](name string) (T, bool) {
	o, ok := _VarMap.Get(name)
	if !ok {
		return util.Default[T](), false
	}
	v, ok := o.val.(T)
	return v, ok
}
