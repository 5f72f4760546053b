package typeinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   *TypeInfo
		want string
	}{
		{"plain", New("java.lang.String"), "java.lang.String"},
		{"args", New("java.util.Map", New("K"), New("java.util.List", New("V"))), "java.util.Map<K, java.util.List<V>>"},
		{"array", New("int").WithArray(2), "int[][]"},
		{"varargs", New("java.lang.String").WithArray(1).WithVarargs(), "java.lang.String..."},
		{"param name", New("long").WithParamName("stamp"), "long stamp"},
		{"wildcard", New("? extends java.lang.Number"), "? extends java.lang.Number"},
		{"inner", &TypeInfo{Name: "a.Outer", Args: []*TypeInfo{New("K")}, Inner: New("Entry", New("V"))}, "a.Outer<K>$Entry<V>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestParse(t *testing.T) {
	tests := []string{
		"java.lang.String",
		"java.util.Map<K, java.util.List<? extends java.lang.Number>>",
		"java.util.List<?>",
		"java.util.Comparator<? super %%T>",
		"int[]",
		"java.lang.Object...",
		"a.Outer<K>$Entry<V>",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, in, got.String())
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"", "List<", "Map<K V>", "List<String>>"} {
			_, err := Parse(in)
			assert.Error(t, err, in)
		}
	})
}

func TestTypeArguments(t *testing.T) {
	assert.Equal(t, []string{"java.lang.String", "java.util.List<java.lang.Integer>"},
		TypeArguments("java.util.Map<java.lang.String, java.util.List<java.lang.Integer>>"))
	assert.Empty(t, TypeArguments("java.lang.String"))
	assert.Equal(t, []string{"V"}, TypeArguments("a.Outer<K>$Entry<V>"))
}

func TestBare(t *testing.T) {
	assert.Equal(t, "java.util.Map", Bare("java.util.Map<K, java.util.List<V>>"))
	assert.Equal(t, "a.Outer$Entry", Bare("a.Outer<K>$Entry<V>"))
	assert.Equal(t, "java.lang.String", Bare(" java.lang.String "))
}

func TestInnerVariants(t *testing.T) {
	assert.Equal(t, []string{"a.b.Outer$Inner"}, InnerVariants("a.b.Outer.Inner"))
	assert.Equal(t, []string{"a.Outer.Mid$In", "a.Outer$Mid$In"}, InnerVariants("a.Outer.Mid.In"))
	assert.Empty(t, InnerVariants("a.b.Outer"))
	assert.Empty(t, InnerVariants("java.util.List"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Entry", SimpleName("java.util.Map$Entry<K, V>"))
	assert.Equal(t, "java.util", PackageName("java.util.Map$Entry"))
	assert.Equal(t, "java.util.Map.Entry", SourceName("java.util.Map$Entry"))
	assert.Equal(t, "demo.Box<java.util.List<E>, U>", StripMarks("demo.Box<java.util.List<%%E>, ##U>"))
}

func TestPlaceholders(t *testing.T) {
	t.Run("class variables in order", func(t *testing.T) {
		assert.Equal(t, []string{"K", "V"}, ClassVariables("java.util.Map<%%K, java.util.List<%%V>> %%K"))
		assert.Empty(t, ClassVariables("##T"))
	})

	t.Run("substitute is single pass", func(t *testing.T) {
		got := Substitute("java.util.Map<%%K, %%V>", map[string]string{"K": "%%V", "V": "java.lang.String"})
		assert.Equal(t, "java.util.Map<%%V, java.lang.String>", got)
	})

	t.Run("replace respects identifier boundaries", func(t *testing.T) {
		assert.Equal(t, "X<java.lang.Long, %%TT>", ReplaceVariable("X<%%T, %%TT>", "%%T", "java.lang.Long"))
	})

	t.Run("render", func(t *testing.T) {
		assert.Equal(t, "java.util.List<java.lang.Integer>", Render("java.util.List<%%T>", map[string]string{"T": "java.lang.Integer"}))
		assert.Equal(t, "java.lang.Object", Render("%%T", nil))
		assert.Equal(t, "U", Render("##U", nil))
	})

	t.Run("bindings", func(t *testing.T) {
		m := Bindings([]string{"A", "B", "C"}, []string{"java.lang.String", "%%B"})
		assert.Equal(t, map[string]string{"A": "java.lang.String"}, m)
		assert.Equal(t, map[string]string{"A": "x"}, Bindings([]string{"A"}, []string{"x", "y"}))
	})
}
