package log

import (
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

const (
	_SDebug = "[D]"
	_SInfo  = "[I]"
	_SWarn  = "[W]"
	_SError = "[E]"
	_SFatal = "[F]"
)

const (
	ColorRed      = "\033[31m"
	ColorGreen    = "\033[32m"
	ColorYellow   = "\033[33m"
	ColorCyan     = "\033[36m"
	ColorHiRed    = "\033[91m"
	ColorHiGreen  = "\033[92m"
	ColorHiYellow = "\033[93m"
	ColorHiPurple = "\033[95m"
	ColorHiWhite  = "\033[97m"
	ColorReset    = "\033[0m"
)

func LogLvlToStr(l sprocket.TLevel) string {
	switch l {
	case sprocket.TDebug:
		return _SDebug
	case sprocket.TInfo:
		return _SInfo
	case sprocket.TWarn:
		return _SWarn
	case sprocket.TError:
		return _SError
	case sprocket.TFatal:
		return _SFatal
	default:
		return ""
	}
}

type (
	stdOption struct {
		logLvl     sprocket.TLevel
		timeLayout string
		color      bool
		writer     io.Writer
	}
	StdOption func(opt *stdOption)
)

func StdLogLvl(levels ...sprocket.TLevel) StdOption {
	return func(opt *stdOption) {
		opt.logLvl = sprocket.LvlToMask(levels...)
	}
}

func StdLogStrLvl(levels ...string) StdOption {
	return func(opt *stdOption) {
		opt.logLvl = sprocket.StrLvlToMask(levels...)
	}
}

func StdTimeLayout(layout string) StdOption {
	return func(opt *stdOption) {
		opt.timeLayout = layout
	}
}

func StdWriter(writer io.Writer) StdOption {
	return func(opt *stdOption) {
		opt.writer = writer
	}
}

func StdColor(color bool) StdOption {
	return func(opt *stdOption) {
		opt.color = color
	}
}

// StdFile 按大小切分，保留 30 天，文件日志不带颜色
func StdFile(file string, maxSizeMb int) StdOption {
	return func(opt *stdOption) {
		opt.color = false
		opt.writer = &lumberjack.Logger{
			Filename: file,
			MaxSize:  maxSizeMb,
			MaxAge:   30,
			Compress: true,
		}
	}
}

func NewStd(opts ...StdOption) *stdLogger {
	opt := &stdOption{
		logLvl:     sprocket.LvlToMask(sprocket.TestLevels...),
		timeLayout: sprocket.DefTimeFormatter,
		color:      true,
		writer:     os.Stdout,
	}
	for _, o := range opts {
		o(opt)
	}
	l := &stdLogger{
		option:  opt,
		headers: make(map[sprocket.TLevel]string, 5),
		tail:    "\n",
	}
	l.headers[sprocket.TDebug] = _SDebug
	l.headers[sprocket.TInfo] = _SInfo
	l.headers[sprocket.TWarn] = _SWarn
	l.headers[sprocket.TError] = _SError
	l.headers[sprocket.TFatal] = _SFatal
	if opt.color {
		l.headers[sprocket.TDebug] = ColorHiWhite + _SDebug
		l.headers[sprocket.TInfo] = ColorHiGreen + _SInfo
		l.headers[sprocket.TWarn] = ColorHiYellow + _SWarn
		l.headers[sprocket.TError] = ColorHiRed + _SError
		l.headers[sprocket.TFatal] = ColorHiPurple + _SFatal
		l.tail = ColorReset + l.tail
	}
	return l
}

type stdLogger struct {
	mtx     sync.Mutex
	option  *stdOption
	headers map[sprocket.TLevel]string
	tail    string
}

func (l *stdLogger) getTimestamp() string {
	return time.Now().Format(l.option.timeLayout)
}

func (l *stdLogger) Log(level sprocket.TLevel, msg, caller string, stack []byte, params util.M) {
	if !util.TestMask(level, l.option.logLvl) {
		return
	}
	var buffer util.ByteBuffer
	if stack == nil {
		buffer.InitCap(512)
	} else {
		buffer.InitCap(1024)
	}
	buffer.WStringNoLen(l.headers[level])
	buffer.WStringNoLen(l.getTimestamp())
	if msg != "" {
		buffer.WStringNoLen(" ")
		buffer.WStringNoLen(msg)
	}
	buffer.WStringNoLen(l.tail)
	if len(params) > 0 {
		ps, _ := util.JsonMarshal(params)
		_, _ = buffer.Write(ps)
		buffer.WStringNoLen("\n")
	}
	buffer.WStringNoLen(caller)
	if stack != nil {
		_, _ = buffer.Write(stack)
	}
	buffer.WStringNoLen("\n")
	// 多个 frame 并发写同一个 writer
	l.mtx.Lock()
	_, _ = l.option.writer.Write(buffer.All())
	l.mtx.Unlock()
	buffer.Dispose()
}
