package sprocket

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/15mga/sprocket/util"
)

// ILogger 日志输出
type ILogger interface {
	Log(level TLevel, msg, caller string, stack []byte, params util.M)
}

type TLevel = int64

const (
	TDebug TLevel = 1 << iota
	TInfo
	TWarn
	TError
	TFatal
)

const (
	SDebug = "debug"
	SInfo  = "info"
	SWarn  = "warn"
	SError = "error"
	SFatal = "fatal"
)

const (
	DefTimeFormatter = "2006-01-02 15:04:05.999"
)

var (
	TestLevels = []TLevel{TDebug, TInfo, TWarn, TError, TFatal}
	DevLevels  = []TLevel{TInfo, TWarn, TError, TFatal}
	ProdLevels = []TLevel{TWarn, TError, TFatal}
)

func StrToLevel(l string) TLevel {
	switch l {
	case SDebug:
		return TDebug
	case SWarn:
		return TWarn
	case SError:
		return TError
	case SFatal:
		return TFatal
	default:
		return TInfo
	}
}

func LevelToStr(l TLevel) string {
	switch l {
	case TDebug:
		return SDebug
	case TWarn:
		return SWarn
	case TError:
		return SError
	case TFatal:
		return SFatal
	default:
		return SInfo
	}
}

func StrLvlToMask(levels ...string) TLevel {
	slc := make([]TLevel, 0, len(levels))
	for _, level := range levels {
		slc = append(slc, StrToLevel(level))
	}
	return util.GenMask(slc...)
}

func LvlToMask(levels ...TLevel) TLevel {
	return util.GenMask(levels...)
}

var (
	_LogMtx       sync.RWMutex
	_LogDefParams = util.M{}
	_Loggers      []ILogger
	_CallerSkip   = 2
)

// SetLogDefParams 每条日志都会附带的参数，比如 scene id
func SetLogDefParams(params util.M) {
	_LogMtx.Lock()
	for k, v := range params {
		_LogDefParams[k] = v
	}
	_LogMtx.Unlock()
}

func AddLogger(logger ILogger) {
	_LogMtx.Lock()
	_Loggers = append(_Loggers, logger)
	_LogMtx.Unlock()
}

// ClearLoggers 测试用
func ClearLoggers() {
	_LogMtx.Lock()
	_Loggers = nil
	_LogMtx.Unlock()
}

func SetCallerSkip(skip int) {
	_CallerSkip = skip
}

func log(level TLevel, msg string, stack []byte, params util.M) {
	_LogMtx.RLock()
	defer _LogMtx.RUnlock()
	if len(_Loggers) == 0 {
		return
	}
	if len(_LogDefParams) > 0 {
		m := make(util.M, len(params)+len(_LogDefParams))
		for k, v := range _LogDefParams {
			m[k] = v
		}
		for k, v := range params {
			m[k] = v
		}
		params = m
	}
	caller := GetCaller(_CallerSkip + 1)
	for _, l := range _Loggers {
		l.Log(level, msg, caller, stack, params)
	}
}

func Debug(str string, params util.M) {
	log(TDebug, str, nil, params)
}

func Info(str string, params util.M) {
	log(TInfo, str, nil, params)
}

func Warn(err *util.Err) {
	if err == nil {
		return
	}
	log(TWarn, err.String(), err.Stack(), err.Params())
}

func Warn2(code util.TErrCode, m util.M) {
	err := util.NewErr(code, m)
	log(TWarn, err.String(), err.Stack(), err.Params())
}

func Warn3(code util.TErrCode, e error) {
	err := util.WrapErr(code, e)
	log(TWarn, err.String(), err.Stack(), err.Params())
}

func Error(err *util.Err) {
	if err == nil {
		return
	}
	log(TError, err.String(), err.Stack(), err.Params())
}

func Error2(code util.TErrCode, m util.M) {
	err := util.NewErr(code, m)
	log(TError, err.String(), err.Stack(), err.Params())
}

func Error3(code util.TErrCode, e error) {
	err := util.WrapErr(code, e)
	log(TError, err.String(), err.Stack(), err.Params())
}

func Fatal(err *util.Err) {
	if err == nil {
		return
	}
	log(TFatal, err.String(), err.Stack(), err.Params())
	os.Exit(1)
}

func Fatal2(code util.TErrCode, m util.M) {
	err := util.NewErr(code, m)
	log(TFatal, err.String(), err.Stack(), err.Params())
	os.Exit(1)
}

func Fatal3(code util.TErrCode, e error) {
	err := util.WrapErr(code, e)
	log(TFatal, err.String(), err.Stack(), err.Params())
	os.Exit(1)
}

func GetCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return util.LogTrim(file) + ":" + strconv.Itoa(line)
}
