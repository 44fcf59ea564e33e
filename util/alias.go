package util

type (
	TErrCode = uint16
)

type (
	Fn            func()
	ToInt64       func() int64
	FnBool        func(bool)
	FnInt         func(int)
	FnAny         func(any)
	FnAnySlc      func([]any)
	FnErr         func(*Err)
	FnStrAny      func(string, any)
	StrToStr2Err  func(string) (string, string, *Err)
	StrToBytesErr func(string) ([]byte, *Err)
	BytesToAnyErr func([]byte) (any, *Err)
)

func Default[T any]() (v T) {
	return
}

func (f Fn) Invoke() {
	if f == nil {
		return
	}
	f()
}

func (f FnErr) Invoke(err *Err) {
	if f == nil {
		return
	}
	f(err)
}
