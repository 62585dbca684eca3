package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
start: "2024-05-01T09:00:00Z"
flow:
  - do: save
    kind: blog
    as: post
    title: Hello
    date: "2024-05-02T10:00:00+02:00"
    expect: { pk: 1 }
  - do: get
    kind: blog
    pk: 1
assertions:
  - type: trace_contains
    action: blog.save
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, "2024-05-01T09:00:00Z", scenario.Start)
	require.Len(t, scenario.Flow, 2)
	assert.Len(t, scenario.Assertions, 1)

	save := scenario.Flow[0]
	assert.Equal(t, OpSave, save.Do)
	assert.Equal(t, KindBlog, save.Kind)
	assert.Equal(t, "post", save.As)
	require.NotNil(t, save.Title)
	assert.Equal(t, "Hello", *save.Title)
	assert.Nil(t, save.Context, "omitted fields stay nil")
	assert.Equal(t, 1, save.Expect["pk"])

	require.NotNil(t, scenario.Flow[1].PK)
	assert.Equal(t, int64(1), *scenario.Flow[1].PK)
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			assert.NoError(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Typo in assertions key"
flow:
  - do: all
    kind: article
assertion:
  - type: trace_count
    action: article.all
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	const assertions = `
assertions:
  - type: trace_count
    action: article.all
    count: 1
`
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
flow:
  - do: all
    kind: article
` + assertions,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
flow:
  - do: all
    kind: article
` + assertions,
			wantErr: "description is required",
		},
		{
			name: "bad start",
			content: `
name: x
description: "x"
start: yesterday
flow:
  - do: all
    kind: article
` + assertions,
			wantErr: "start",
		},
		{
			name: "empty flow",
			content: `
name: x
description: "x"
flow: []
` + assertions,
			wantErr: "flow list is required",
		},
		{
			name: "missing assertions",
			content: `
name: x
description: "x"
flow:
  - do: all
    kind: article
`,
			wantErr: "assertions list is required",
		},
		{
			name: "missing do",
			content: `
name: x
description: "x"
flow:
  - kind: article
` + assertions,
			wantErr: "do is required",
		},
		{
			name: "unknown operation",
			content: `
name: x
description: "x"
flow:
  - do: upsert
    kind: article
` + assertions,
			wantErr: `unknown operation "upsert"`,
		},
		{
			name: "unknown kind",
			content: `
name: x
description: "x"
flow:
  - do: all
    kind: page
` + assertions,
			wantErr: `unknown kind "page"`,
		},
		{
			name: "save without kind or ref",
			content: `
name: x
description: "x"
flow:
  - do: save
    title: t
` + assertions,
			wantErr: "save needs kind or ref",
		},
		{
			name: "get without pk",
			content: `
name: x
description: "x"
flow:
  - do: get
    kind: article
` + assertions,
			wantErr: "get needs pk",
		},
		{
			name: "delete without ref",
			content: `
name: x
description: "x"
flow:
  - do: delete
    kind: article
` + assertions,
			wantErr: "delete needs ref",
		},
		{
			name: "exec without sql",
			content: `
name: x
description: "x"
flow:
  - do: exec
` + assertions,
			wantErr: "exec needs sql",
		},
		{
			name: "ref before binding",
			content: `
name: x
description: "x"
flow:
  - do: delete
    ref: post
  - do: save
    kind: article
    as: post
` + assertions,
			wantErr: `ref "post" is not bound`,
		},
		{
			name: "kind contradicts ref",
			content: `
name: x
description: "x"
flow:
  - do: save
    kind: article
    as: post
  - do: save
    kind: blog
    ref: post
` + assertions,
			wantErr: "does not match ref",
		},
		{
			name: "date on article",
			content: `
name: x
description: "x"
flow:
  - do: save
    kind: article
    date: "2024-01-01T00:00:00Z"
` + assertions,
			wantErr: "only blog articles have a date",
		},
		{
			name: "malformed date",
			content: `
name: x
description: "x"
flow:
  - do: save
    kind: blog
    date: "01/02/2024"
` + assertions,
			wantErr: "invalid date",
		},
		{
			name: "unknown assertion type",
			content: `
name: x
description: "x"
flow:
  - do: all
    kind: article
assertions:
  - type: eventually
`,
			wantErr: `unknown assertion type "eventually"`,
		},
		{
			name: "final_state without expect",
			content: `
name: x
description: "x"
flow:
  - do: all
    kind: article
assertions:
  - type: final_state
    table: article
`,
			wantErr: "expect is required for final_state",
		},
		{
			name: "row_count without table",
			content: `
name: x
description: "x"
flow:
  - do: all
    kind: article
assertions:
  - type: row_count
    count: 1
`,
			wantErr: "table is required for row_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
