package ds

import (
	"reflect"

	"github.com/15mga/sprocket/util"
)

func NewFnLink() *FnLink {
	return &FnLink{
		Link: NewLink[util.Fn](),
	}
}

type FnLink struct {
	*Link[util.Fn]
}

func (l *FnLink) Invoke() bool {
	if l.count == 0 {
		return false
	}
	for e := l.head; e != nil; e = e.Next {
		e.Value()
	}
	return true
}

// InvokeAndReset 执行后清空，回调中追加的函数留到下一次
func (l *FnLink) InvokeAndReset() bool {
	if l.count == 0 {
		return false
	}
	head := l.PopAll()
	for e := head; e != nil; e = e.Next {
		e.Value()
	}
	return true
}

func (l *FnLink) Del(fn util.Fn) {
	pointer := reflect.ValueOf(fn).Pointer()
	_ = l.Link.Del(func(f util.Fn) bool {
		return reflect.ValueOf(f).Pointer() == pointer
	})
}

func NewFnLink1[T any]() *FnLink1[T] {
	return &FnLink1[T]{
		Link: NewLink[func(T)](),
	}
}

type FnLink1[T any] struct {
	*Link[func(T)]
}

func (l *FnLink1[T]) Invoke(obj T) {
	for e := l.head; e != nil; e = e.Next {
		e.Value(obj)
	}
}

func (l *FnLink1[T]) Del(fn func(T)) {
	pointer := reflect.ValueOf(fn).Pointer()
	_ = l.Link.Del(func(f func(T)) bool {
		return reflect.ValueOf(f).Pointer() == pointer
	})
}

func NewFnLink2[T0, T1 any]() *FnLink2[T0, T1] {
	return &FnLink2[T0, T1]{
		Link: NewLink[func(T0, T1)](),
	}
}

type FnLink2[T0, T1 any] struct {
	*Link[func(T0, T1)]
}

func (l *FnLink2[T0, T1]) Invoke(v0 T0, v1 T1) {
	for e := l.head; e != nil; e = e.Next {
		e.Value(v0, v1)
	}
}

func (l *FnLink2[T0, T1]) Del(fn func(T0, T1)) {
	pointer := reflect.ValueOf(fn).Pointer()
	_ = l.Link.Del(func(f func(T0, T1)) bool {
		return reflect.ValueOf(f).Pointer() == pointer
	})
}
