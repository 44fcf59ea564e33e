package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/15mga/sprocket/util"
)

type testConf struct {
	Scene struct {
		Id          string `mapstructure:"id"`
		EntityLimit uint32 `mapstructure:"entity_limit"`
	} `mapstructure:"scene"`
	Tick int `mapstructure:"tick"`
}

func TestLoadConf(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, os.WriteFile(filepath.Join(dir, "base.yml"), []byte(
		"scene:\n  id: main\n  entity_limit: 64\ntick: 16\n"), 0644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "local.yml"), []byte(
		"scene:\n  entity_limit: 8\n"), 0644))
	SetConfRoot(dir)
	defer SetConfRoot("")

	var conf testConf
	err := LoadConf(&conf, ConvertConfLocalPath("base.yml", "local.yml", "missing.yml")...)
	assert.Nil(t, err)
	assert.Equal(t, "main", conf.Scene.Id)
	assert.Equal(t, uint32(8), conf.Scene.EntityLimit)
	assert.Equal(t, 16, conf.Tick)

	err = LoadConf(&conf, ConvertConfLocalPath("missing.yml")...)
	assert.True(t, util.IsErrCode(err, util.EcNotExist))
	err = LoadConf(&conf)
	assert.True(t, util.IsErrCode(err, util.EcParamsErr))
}

func TestLoader(t *testing.T) {
	files := map[string]string{"a.txt": "alpha"}
	l := NewLoader("mem")
	l.BindLoader("mem", func(p string) ([]byte, *util.Err) {
		s, ok := files[p]
		if !ok {
			return nil, util.NewErr(util.EcNotExist, util.M{"path": p})
		}
		return []byte(s), nil
	})
	l.BindParser("text", func(b []byte) (any, *util.Err) {
		return string(b), nil
	})
	v, err := l.Get("text", "a.txt")
	assert.Nil(t, err)
	assert.Equal(t, "alpha", v)
	_, err = l.Get("text", "b.txt")
	assert.NotNil(t, err)
	_, err = l.Get("bin", "a.txt")
	assert.NotNil(t, err)
}
