package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jreflect/java/reflector"
)

func sampleClass() *Class {
	get := &reflector.MemberDescriptor{
		DeclaringClass: "demo.Box<java.lang.String>",
		Name:           "get",
		Kind:           reflector.KindMethod,
		Modifiers:      "public final",
		ReturnType:     "%%T",
		TypeParameters: []string{"T"},
	}
	get.Bind(map[string]string{"T": "java.lang.String"})

	return &Class{
		Index: &reflector.ClassIndex{
			Name:           "demo.Box",
			TypeParameters: []string{"T"},
			Supers:         []string{"demo.Base<%%T>", "java.lang.Object"},
			Origin:         "/lib/demo.jar",
		},
		Members: []*reflector.MemberDescriptor{
			{
				DeclaringClass: "demo.Box",
				Name:           "demo.Box",
				Kind:           reflector.KindConstructor,
				Modifiers:      "public",
				ReturnType:     "demo.Box",
				Parameters:     []reflector.Parameter{{Type: "int", Name: "size"}},
			},
			{
				DeclaringClass: "demo.Box",
				Name:           "count",
				Kind:           reflector.KindField,
				Modifiers:      "protected",
				ReturnType:     "int",
			},
			get,
		},
	}
}

func TestLineEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewLineEncoder(&buf).Encode(sampleClass()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"class\tdemo.Box<T>\tdemo.Base<T>,java.lang.Object\t/lib/demo.jar",
		"constructor\tdemo.Box\t-\tint\tpublic\tdemo.Box",
		"field\tcount\tint\t-\tprotected\tdemo.Box",
		"method\tget\tjava.lang.String\t-\tpublic,final\tdemo.Box<java.lang.String>",
	}, lines)

	t.Run("index only", func(t *testing.T) {
		var buf bytes.Buffer
		c := sampleClass()
		c.Members = nil
		c.Index.Interface = true
		c.Index.Origin = ""
		require.NoError(t, NewLineEncoder(&buf).Encode(c))
		assert.Equal(t, "interface\tdemo.Box<T>\tdemo.Base<T>,java.lang.Object\t-\n", buf.String())
	})

	t.Run("color", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewLineEncoder(&buf).WithColor(true).Encode(sampleClass()))
		assert.Contains(t, buf.String(), "demo.Box<T>")
	})

	t.Run("nothing to encode", func(t *testing.T) {
		_, err := NewLineEncoder(&bytes.Buffer{}).MarshalText()
		assert.Error(t, err)
	})
}

func TestDeclarationEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDeclarationEncoder(&buf).Encode(sampleClass()))
	assert.Equal(t, `demo.Box<T> {
  public demo.Box(int size);
  protected int count;
  public final java.lang.String get();
}
`, buf.String())
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONEncoder(&buf).Encode(sampleClass()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "demo.Box", got["name"])
	assert.Equal(t, "Box", got["simpleName"])
	assert.Equal(t, "demo", got["package"])
	assert.Equal(t, "class", got["kind"])
	assert.Equal(t, []interface{}{"demo.Base<T>", "java.lang.Object"}, got["supers"])

	members := got["members"].([]interface{})
	require.Len(t, members, 3)

	ctor := members[0].(map[string]interface{})
	assert.Equal(t, "constructor", ctor["kind"])
	assert.NotContains(t, ctor, "type")
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "size", "type": "int"}}, ctor["parameters"])

	get := members[2].(map[string]interface{})
	assert.Equal(t, "java.lang.String", get["type"])
	assert.Equal(t, []interface{}{"public", "final"}, get["modifiers"])
	assert.Equal(t, "public final java.lang.String get()", get["declaration"])
}
