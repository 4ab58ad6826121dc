package format_test

import (
	"testing"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/format"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/aretw0/strata/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackends_Contract(t *testing.T) {
	for _, backend := range []ports.FormatBackend{format.NewJSON(), format.NewYAML(), format.NewTOML()} {
		t.Run(backend.Extensions()[0], func(t *testing.T) {
			tests.FormatBackendContractTest(t, backend)
		})
	}
}

func TestBackends_SelectByExtension(t *testing.T) {
	b := format.Default()

	for id, want := range map[string]string{
		"a.json":     ".json",
		"dir/b.yaml": ".yaml",
		"c.YML":      ".yaml",
		"d.toml":     ".toml",
	} {
		backend, err := b.For(id)
		require.NoError(t, err, id)
		assert.Equal(t, want, backend.Extensions()[0], id)
	}

	_, err := b.For("scene.usda")
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
	assert.False(t, b.Supports("noext"))
	assert.Equal(t, []string{".json", ".toml", ".yaml", ".yml"}, b.Extensions())
}

func TestParse_HandWrittenDocuments(t *testing.T) {
	docs := map[string]string{
		"l.json": `{
  "default_target": "target1",
  "prims": {
    "/target1": {"attributes": {"attr": {"type": "double", "default": 1.234}}},
    "/target2": {"attributes": {"attr": {"type": "double", "default": 2.345}}}
  }
}`,
		"l.yaml": `
default_target: target1
prims:
  /target1:
    attributes:
      attr: {type: double, default: 1.234}
  /target2:
    attributes:
      attr: {type: double, default: 2.345}
`,
		"l.toml": `
default_target = "target1"

[prims."/target1".attributes.attr]
type = "double"
default = 1.234

[prims."/target2".attributes.attr]
type = "double"
default = 2.345
`,
	}

	b := format.Default()
	for id, text := range docs {
		t.Run(id, func(t *testing.T) {
			l, err := b.Parse(id, []byte(text))
			require.NoError(t, err)

			assert.Equal(t, "target1", l.DefaultTarget())
			v, ok := l.AttributeValue("/target2", "attr")
			require.True(t, ok)
			assert.True(t, v.Equal(domain.Double(2.345)))
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := format.NewJSON().Parse("x.json", []byte(`{"prims": {}, "sublayers": []}`))
	assert.Error(t, err)
}
