package ecs

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxComponents 可注册的组件类型上限，对应 Signature 的位宽
const MaxComponents = 128

// Signature 组件类型位集，第 i 位表示拥有 id 为 i 的组件
type Signature [MaxComponents / 64]uint64

func NewSignature(ids ...ComponentTypeId) Signature {
	var s Signature
	for _, id := range ids {
		s.Set(id)
	}
	return s
}

func (s *Signature) Set(id ComponentTypeId) {
	s[id>>6] |= 1 << (id & 63)
}

func (s *Signature) Clear(id ComponentTypeId) {
	s[id>>6] &^= 1 << (id & 63)
}

func (s Signature) Test(id ComponentTypeId) bool {
	return s[id>>6]&(1<<(id&63)) != 0
}

func (s Signature) With(id ComponentTypeId) Signature {
	s.Set(id)
	return s
}

func (s Signature) Without(id ComponentTypeId) Signature {
	s.Clear(id)
	return s
}

// Contains s 是否包含 o 的全部位
func (s Signature) Contains(o Signature) bool {
	for i := range s {
		if s[i]&o[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Signature) Intersects(o Signature) bool {
	for i := range s {
		if s[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

func (s Signature) Union(o Signature) Signature {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

func (s Signature) Intersect(o Signature) Signature {
	for i := range s {
		s[i] &= o[i]
	}
	return s
}

func (s Signature) Equal(o Signature) bool {
	return s == o
}

func (s Signature) IsEmpty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s Signature) Count() int {
	c := 0
	for _, w := range s {
		c += bits.OnesCount64(w)
	}
	return c
}

// Ids 升序
func (s Signature) Ids() []ComponentTypeId {
	ids := make([]ComponentTypeId, 0, s.Count())
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			ids = append(ids, ComponentTypeId(i*64+b))
			w &= w - 1
		}
	}
	return ids
}

func (s Signature) String() string {
	ids := s.Ids()
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = strconv.Itoa(int(id))
	}
	return "{" + strings.Join(ss, ",") + "}"
}
