package ecs

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/15mga/sprocket/util"
)

func TestRegisterType(t *testing.T) {
	r := NewTypeRegistry()
	pos, err := RegisterType[testPos](r)
	assert.Nil(t, err)
	vel, err := RegisterType[testVel](r, ComponentCodec[testVel](GobCodec[testVel]{}))
	assert.Nil(t, err)
	assert.NotEqual(t, pos, vel)

	again, err := RegisterType[testPos](r)
	assert.Nil(t, err)
	assert.Equal(t, pos, again)

	_, err = RegisterType[testPos](r, ComponentName[testPos]("other"))
	assert.True(t, util.IsErrCode(err, util.EcExist))
	_, err = RegisterType[testMesh](r, ComponentName[testMesh]("ecs.testPos"))
	assert.True(t, util.IsErrCode(err, util.EcExist))

	ct, ok := r.GetByName("ecs.testVel")
	assert.True(t, ok)
	assert.Equal(t, vel, ct.Id())
	assert.Equal(t, reflect.TypeFor[testVel](), ct.Type())

	_, err = TypeIdOf[testMesh](r)
	assert.True(t, util.IsErrCode(err, util.EcNotRegistered))

	r.Close()
	_, err = RegisterType[testMesh](r)
	assert.True(t, util.IsErrCode(err, util.EcRegistrationClosed))
	assert.Equal(t, 2, r.Count())
}

func TestEncodeComponent(t *testing.T) {
	r := NewTypeRegistry()
	_, _ = RegisterType[testPos](r)
	_, _ = RegisterType[testVel](r, ComponentCodec[testVel](GobCodec[testVel]{}))

	c, err := EncodeComponent(r, testVel{X: 2})
	assert.Nil(t, err)
	v, err := DecodeComponent[testVel](r, c)
	assert.Nil(t, err)
	assert.Equal(t, testVel{X: 2}, v)

	_, err = DecodeComponent[testPos](r, c)
	assert.True(t, util.IsErrCode(err, util.EcWrongType))
}

func TestTooManyComponents(t *testing.T) {
	r := NewTypeRegistry()
	for i := 0; i < MaxComponents; i++ {
		r.types = append(r.types, &ComponentType{id: ComponentTypeId(i)})
	}
	_, err := RegisterType[testPos](r)
	assert.True(t, util.IsErrCode(err, util.EcTooManyComponents))

	// 配置失败的场景不能创建实体
	scene := NewScene("too_many", "test", SceneTypes(r))
	_, err = RegisterComponent[testMesh](scene.Components())
	assert.True(t, util.IsErrCode(err, util.EcTooManyComponents))
	_, err = scene.CreateEntity()
	assert.True(t, util.IsErrCode(err, util.EcIllegalOp))
}
