package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/15mga/sprocket/util"
)

func TestEntityId(t *testing.T) {
	e := newEntityId(3, 2)
	assert.Equal(t, uint32(3), e.Index())
	assert.Equal(t, uint32(2), e.Generation())
	assert.Equal(t, "3v2", e.String())
	assert.False(t, e.IsNil())
	assert.True(t, NilEntity.IsNil())
}

func TestEntityRecycle(t *testing.T) {
	m := NewEntityManager()
	e0, err := m.Create()
	assert.Nil(t, err)
	e1, _ := m.Create()
	assert.Equal(t, uint32(1), e0.Generation())
	assert.NotEqual(t, e0, e1)
	assert.Equal(t, 2, m.Count())

	assert.Nil(t, m.Destroy(e0))
	assert.False(t, m.Alive(e0))
	assert.True(t, m.IsPending(e0))
	assert.Equal(t, 1, m.Pending())

	// 未释放时不复用
	e2, _ := m.Create()
	assert.NotEqual(t, e0.Index(), e2.Index())

	assert.Nil(t, m.Release(e0))
	e3, _ := m.Create()
	assert.Equal(t, e0.Index(), e3.Index())
	assert.Equal(t, uint32(2), e3.Generation())
	assert.False(t, m.Alive(e0))
	assert.True(t, m.Alive(e3))
}

func TestEntityStale(t *testing.T) {
	m := NewEntityManager()
	e, _ := m.Create()
	assert.True(t, util.IsErrCode(m.Release(e), util.EcStaleEntity))
	assert.Nil(t, m.Destroy(e))
	assert.True(t, util.IsErrCode(m.Destroy(e), util.EcStaleEntity))
	assert.Nil(t, m.Release(e))
	assert.True(t, util.IsErrCode(m.Release(e), util.EcStaleEntity))
	assert.True(t, util.IsErrCode(m.Destroy(NilEntity), util.EcStaleEntity))
	assert.False(t, m.Alive(newEntityId(10, 1)))
}

func TestEntityFreeListOrder(t *testing.T) {
	m := NewEntityManager()
	ids := make([]EntityId, 3)
	for i := range ids {
		ids[i], _ = m.Create()
	}
	for _, i := range []int{2, 0, 1} {
		_ = m.Destroy(ids[i])
		_ = m.Release(ids[i])
	}
	for _, i := range []int{2, 0, 1} {
		e, _ := m.Create()
		assert.Equal(t, ids[i].Index(), e.Index())
	}
}

func TestEntityLimit(t *testing.T) {
	m := NewEntityManager(EntityLimit(2))
	_, _ = m.Create()
	e, _ := m.Create()
	_, err := m.Create()
	assert.True(t, util.IsErrCode(err, util.EcIdExhausted))

	_ = m.Destroy(e)
	_ = m.Release(e)
	_, err = m.Create()
	assert.Nil(t, err)
}
