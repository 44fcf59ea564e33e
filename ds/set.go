package ds

import (
	"github.com/15mga/sprocket/util"
)

// NewKSet 紧凑存储的有序集合，删除时用尾部元素填洞
func NewKSet[KT comparable, VT any](defCap int, getKey func(VT) KT) *KSet[KT, VT] {
	if defCap < 2 {
		defCap = 2
	}
	return &KSet[KT, VT]{
		items:    make([]VT, defCap),
		keyToIdx: make(map[KT]int, defCap),
		cap:      defCap,
		defCap:   defCap,
		getKey:   getKey,
	}
}

type KSet[KT comparable, VT any] struct {
	items    []VT
	keyToIdx map[KT]int
	count    int
	cap      int
	defCap   int
	getKey   func(VT) KT
	defVal   VT
}

func (s *KSet[KT, VT]) Count() int {
	return s.count
}

func (s *KSet[KT, VT]) Cap() int {
	return s.cap
}

func (s *KSet[KT, VT]) Add(item VT) *util.Err {
	key := s.getKey(item)
	if _, ok := s.keyToIdx[key]; ok {
		return util.NewErr(util.EcExist, util.M{
			"key": key,
		})
	}
	s.add(key, item)
	return nil
}

func (s *KSet[KT, VT]) AddNX(item VT) bool {
	key := s.getKey(item)
	if _, ok := s.keyToIdx[key]; ok {
		return false
	}
	s.add(key, item)
	return true
}

func (s *KSet[KT, VT]) add(key KT, item VT) {
	s.testGrow()
	s.items[s.count] = item
	s.keyToIdx[key] = s.count
	s.count++
}

func (s *KSet[KT, VT]) testGrow() {
	if s.count < s.cap {
		return
	}
	s.cap <<= 1
	ns := make([]VT, s.cap)
	copy(ns, s.items)
	s.items = ns
}

func (s *KSet[KT, VT]) testShrink() {
	if s.cap == s.defCap {
		return
	}
	h := s.cap >> 1
	if s.count > h>>1 || h < s.defCap {
		return
	}
	ns := make([]VT, h)
	copy(ns, s.items[:s.count])
	s.items = ns
	s.cap = h
}

func (s *KSet[KT, VT]) Set(item VT) (old VT) {
	key := s.getKey(item)
	idx, ok := s.keyToIdx[key]
	if ok {
		old = s.items[idx]
		s.items[idx] = item
		return
	}
	s.add(key, item)
	return
}

func (s *KSet[KT, VT]) Del(k KT) (val VT, exist bool) {
	idx, ok := s.keyToIdx[k]
	if !ok {
		return
	}
	val = s.items[idx]
	exist = true
	delete(s.keyToIdx, k)
	c := s.count - 1
	if idx != c {
		tail := s.items[c]
		s.items[idx] = tail
		s.keyToIdx[s.getKey(tail)] = idx
	}
	s.items[c] = s.defVal
	s.count = c
	s.testShrink()
	return
}

func (s *KSet[KT, VT]) Reset() {
	for i := 0; i < s.count; i++ {
		s.items[i] = s.defVal
	}
	s.count = 0
	s.keyToIdx = make(map[KT]int, s.defCap)
}

func (s *KSet[KT, VT]) Get(key KT) (VT, bool) {
	idx, ok := s.keyToIdx[key]
	if !ok {
		return s.defVal, false
	}
	return s.items[idx], true
}

func (s *KSet[KT, VT]) Has(key KT) bool {
	_, ok := s.keyToIdx[key]
	return ok
}

func (s *KSet[KT, VT]) Iter(fn func(VT)) {
	for i := 0; i < s.count; i++ {
		fn(s.items[i])
	}
}

func (s *KSet[KT, VT]) Any(fn func(VT) bool) bool {
	for i := 0; i < s.count; i++ {
		if fn(s.items[i]) {
			return true
		}
	}
	return false
}

// Values 返回内部切片，修改集合后失效
func (s *KSet[KT, VT]) Values() []VT {
	return s.items[:s.count]
}
