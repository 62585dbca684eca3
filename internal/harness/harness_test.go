package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func pk(id int64) *int64 { return &id }

func TestRun_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_SaveAssignsKeys(t *testing.T) {
	scenario := &Scenario{
		Name:        "save_assigns_keys",
		Description: "Each insert gets the next key",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, Title: str("a"), Expect: map[string]interface{}{"pk": 1}},
			{Do: OpSave, Kind: KindArticle, Title: str("b"), Expect: map[string]interface{}{"pk": 2}},
			{Do: OpAll, Kind: KindArticle, Expect: map[string]interface{}{"count": 2}},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "article", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "article.save", result.Trace[0].Action)
	assert.Equal(t, map[string]interface{}{"title": "a"}, result.Trace[0].Args)
	assert.Equal(t, map[string]interface{}{"pk": int64(1)}, result.Trace[0].Result)
	assert.Equal(t, "article.all", result.Trace[2].Action)
	assert.Nil(t, result.Trace[2].Args)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_mismatch",
		Description: "A wrong expectation fails the result",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, Expect: map[string]interface{}{"pk": 7}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "article.save", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected pk = 7, got 1")
}

func TestRun_ExpectMissingKeyFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_missing_key",
		Description: "Expecting a key the result lacks fails",
		Flow: []FlowStep{
			{Do: OpGet, Kind: KindArticle, PK: pk(1), Expect: map[string]interface{}{"title": "ghost"}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "article.get", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "result has no title")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_error",
		Description: "An operation error fails the result unless expected",
		Flow: []FlowStep{
			{Do: OpExec, SQL: "DROP TABLE blog_article"},
			{Do: OpAll, Kind: KindBlog},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "blog.all", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "blog.all: unexpected error")
	assert.Equal(t, map[string]interface{}{"error": "statement"}, result.Trace[1].Result)
}

func TestRun_BadSQLIsFailedNotStatement(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_exec",
		Description: "Raw SQL errors are not entity statement errors",
		Flow: []FlowStep{
			{Do: OpExec, SQL: "NOT SQL", Expect: map[string]interface{}{"error": "failed"}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "exec", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DeleteUnsavedReportsFalse(t *testing.T) {
	scenario := &Scenario{
		Name:        "delete_unsaved",
		Description: "Deleting an entity that was never saved does nothing",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, As: "post", Title: str("kept")},
			{Do: OpDelete, Ref: "post", Expect: map[string]interface{}{"deleted": true}},
			{Do: OpDelete, Ref: "post", Expect: map[string]interface{}{"deleted": false, "pk": nil}},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "article", Count: 0},
			{Type: AssertTraceCount, Action: "article.delete", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_GetBindsLoadedEntity(t *testing.T) {
	scenario := &Scenario{
		Name:        "get_binds",
		Description: "A loaded entity can be updated through its binding",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, Title: str("old"), Context: str("body")},
			{Do: OpGet, Kind: KindArticle, PK: pk(1), As: "loaded"},
			{Do: OpSave, Ref: "loaded", Title: str("new"), Expect: map[string]interface{}{"pk": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Table: "article", Where: map[string]interface{}{"pk": 1}, Expect: map[string]interface{}{"title": "new", "context": "body"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RefToMissedGetIsExecutionError(t *testing.T) {
	scenario := &Scenario{
		Name:        "missed_get",
		Description: "A get that finds nothing binds nothing",
		Flow: []FlowStep{
			{Do: OpGet, Kind: KindArticle, PK: pk(9), As: "ghost"},
			{Do: OpDelete, Ref: "ghost"},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "article.get", Count: 1},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ref "ghost" is not bound`)
}

func TestRun_BlogDatesFollowStepClock(t *testing.T) {
	scenario := &Scenario{
		Name:        "step_clock",
		Description: "Undated blog articles take the scenario clock",
		Start:       "2030-01-01T00:00:00Z",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindBlog, Title: str("first")},
			{Do: OpGet, Kind: KindBlog, PK: pk(1), Expect: map[string]interface{}{"date": "2030-01-01T00:00:00Z"}},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "blog_article", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_IsolatedStores(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolated",
		Description: "Every run starts from empty tables",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, Expect: map[string]interface{}{"pk": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "article", Count: 1},
		},
	}

	for i := 0; i < 3; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
	}
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "no_description"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_WithLoggerLogsEachStep(t *testing.T) {
	scenario := &Scenario{
		Name:        "logged",
		Description: "Steps are logged to the given logger",
		Flow: []FlowStep{
			{Do: OpSave, Kind: KindArticle, Title: str("a")},
			{Do: OpAll, Kind: KindArticle},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "article.save", Count: 1},
		},
	}

	buf := &bytes.Buffer{}
	result, err := Run(scenario, WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("flow step completed")))
	assert.Contains(t, out, "scenario=logged")
	assert.Contains(t, out, "action=article.save")
	assert.Contains(t, out, "action=article.all")
}

func TestRun_WithNilLoggerStaysQuiet(t *testing.T) {
	scenario := &Scenario{
		Name:        "quiet",
		Description: "A nil logger keeps the default",
		Flow:        []FlowStep{{Do: OpAll, Kind: KindArticle}},
		Assertions:  []Assertion{{Type: AssertTraceCount, Action: "article.all", Count: 1}},
	}

	result, err := Run(scenario, WithLogger(nil))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}
