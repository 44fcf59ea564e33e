package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/15mga/sprocket/ecs"
	"github.com/15mga/sprocket/util"
)

func TestSpawnLabels(t *testing.T) {
	scene := ecs.NewScene("sandbox_test", "sandbox")
	require.Nil(t, registerComponents(scene))
	require.Nil(t, scene.Boot())
	t.Cleanup(scene.Dispose)

	err := spawn(scene, []SpawnConf{
		{Name: "cube", Count: 2, Mesh: util.M{"path": "cube.mesh"}},
		{Count: 1, Mesh: util.M{"path": "cube.mesh"}},
	})
	require.Nil(t, err)
	assert.Equal(t, 3, scene.Entities().Count())

	arr, err := ecs.Array[Label](scene.Components())
	require.Nil(t, err)
	var labels []string
	for _, e := range arr.Entities() {
		label, ok := ecs.SceneGet[Label](scene, e)
		require.True(t, ok)
		labels = append(labels, label.GetValue())
	}
	assert.ElementsMatch(t, []string{"cube#0", "cube#1"}, labels)

	// 标签按 protobuf 编码后可以还原
	c, err := ecs.EncodeComponent[Label](scene.Types(), wrapperspb.String("cube#0"))
	require.Nil(t, err)
	v, err := ecs.DecodeComponent[Label](scene.Types(), c)
	require.Nil(t, err)
	assert.Equal(t, "cube#0", v.GetValue())
}
