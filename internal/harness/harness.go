package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/articles/internal/article"
	"github.com/roach88/articles/internal/blog"
	"github.com/roach88/articles/internal/record"
	"github.com/roach88/articles/internal/store"
	"github.com/roach88/articles/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against one store with a deterministic clock.
type Harness struct {
	store    *store.Store
	clock    *testutil.StepClock
	logger   *slog.Logger
	scenario string
	bindings map[string]*binding
}

// binding is an entity a step bound with "as".
type binding struct {
	kind    string
	article *article.Article
	blog    *blog.Article
}

func (b *binding) key() record.Key {
	if b.kind == KindBlog {
		return b.blog.PK()
	}
	return b.article.PK()
}

func (b *binding) delete(ctx context.Context) (bool, error) {
	if b.kind == KindBlog {
		return b.blog.Delete(ctx)
	}
	return b.article.Delete(ctx)
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sends per-step logs to logger. Run discards them by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Validate the scenario and create a fresh in-memory database
// 2. Execute flow steps, checking each expect clause
// 3. Evaluate assertions against the trace and the tables
// 4. Return result with pass/fail, trace, and errors
//
// Operation failures are scenario outcomes, not execution errors: they
// land in the trace and fail the result unless the step expects them.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	start, err := scenario.startTime()
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: start: %w", err)
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		scenario: scenario.Name,
		clock:    testutil.NewStepClock(start, testutil.DefaultStep),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		bindings: make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	assertionErrors := EvaluateAssertions(result, scenario.Assertions, actx)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Resolves its entity (new, bound by ref, or loaded)
// 2. Performs the operation against the store
// 3. Records the arguments and outcome in the trace
// 4. Matches the outcome against the expect clause
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		kind := step.Kind
		var b *binding
		if step.Ref != "" {
			bound, ok := h.bindings[step.Ref]
			if !ok {
				return fmt.Errorf("flow step %d: ref %q is not bound (did its get find nothing?)", i, step.Ref)
			}
			b = bound
			kind = b.kind
		}
		action := step.action(kind)

		var out map[string]interface{}
		var opErr error
		switch step.Do {
		case OpSave:
			b, out, opErr = h.save(ctx, kind, b, step)
		case OpGet:
			b, out, opErr = h.get(ctx, kind, *step.PK)
		case OpDelete:
			out, opErr = h.delete(ctx, b)
		case OpAll:
			out, opErr = h.all(ctx, kind)
		case OpExec:
			_, opErr = h.store.DB().ExecContext(ctx, step.SQL)
		default:
			return fmt.Errorf("flow step %d: unknown operation %q", i, step.Do)
		}

		if opErr != nil {
			out = map[string]interface{}{"error": errorClass(opErr)}
			if _, expected := step.Expect["error"]; !expected {
				result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", i, action, opErr))
			}
		}

		if step.As != "" && b != nil {
			h.bindings[step.As] = b
		}

		result.AddTrace(action, stepArgs(step), out)

		if step.Expect != nil {
			if msg := matchExpect(out, step.Expect); msg != "" {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, action, msg))
			}
		}

		h.logger.Info("flow step completed",
			"scenario", h.scenario,
			"step", i,
			"action", action,
			"result", out,
		)
	}

	return nil
}

func (h *Harness) newBinding(kind string) *binding {
	if kind == KindBlog {
		return &binding{kind: kind, blog: blog.New(h.store, blog.WithClock(h.clock.Now))}
	}
	return &binding{kind: kind, article: article.New(h.store)}
}

// save applies the step's fields to b, or to a new entity when b is nil,
// and saves it.
func (h *Harness) save(ctx context.Context, kind string, b *binding, step FlowStep) (*binding, map[string]interface{}, error) {
	if b == nil {
		b = h.newBinding(kind)
	}

	var err error
	switch b.kind {
	case KindArticle:
		if step.Title != nil {
			b.article.Title = *step.Title
		}
		if step.Context != nil {
			b.article.Context = *step.Context
		}
		err = b.article.Save(ctx)
	case KindBlog:
		if step.Title != nil {
			b.blog.Title = *step.Title
		}
		if step.Context != nil {
			b.blog.Context = *step.Context
		}
		if step.Date != "" {
			date, perr := time.Parse(time.RFC3339, step.Date)
			if perr != nil {
				return b, nil, perr
			}
			b.blog.Date = date
		}
		err = b.blog.Save(ctx)
	}

	return b, map[string]interface{}{"pk": keyValue(b.key())}, err
}

// get loads the row stored under pk. The returned binding is nil when no
// row matches.
func (h *Harness) get(ctx context.Context, kind string, pk int64) (*binding, map[string]interface{}, error) {
	switch kind {
	case KindBlog:
		a, found, err := blog.New(h.store, blog.WithClock(h.clock.Now)).Get(ctx, pk)
		if err != nil || !found {
			return nil, map[string]interface{}{"found": false}, err
		}
		return &binding{kind: kind, blog: a}, map[string]interface{}{
			"found":   true,
			"pk":      keyValue(a.PK()),
			"title":   a.Title,
			"context": a.Context,
			"date":    a.Date.Format(time.RFC3339),
		}, nil
	default:
		a, found, err := article.New(h.store).Get(ctx, pk)
		if err != nil || !found {
			return nil, map[string]interface{}{"found": false}, err
		}
		return &binding{kind: kind, article: a}, map[string]interface{}{
			"found":   true,
			"pk":      keyValue(a.PK()),
			"title":   a.Title,
			"context": a.Context,
		}, nil
	}
}

func (h *Harness) delete(ctx context.Context, b *binding) (map[string]interface{}, error) {
	deleted, err := b.delete(ctx)
	return map[string]interface{}{"deleted": deleted, "pk": keyValue(b.key())}, err
}

func (h *Harness) all(ctx context.Context, kind string) (map[string]interface{}, error) {
	var count int
	switch kind {
	case KindBlog:
		all, err := blog.New(h.store, blog.WithClock(h.clock.Now)).All(ctx)
		if err != nil {
			return nil, err
		}
		count = len(all)
	default:
		all, err := article.New(h.store).All(ctx)
		if err != nil {
			return nil, err
		}
		count = len(all)
	}
	return map[string]interface{}{"count": count}, nil
}

// keyValue is the trace form of a key: the id, or nil when unsaved.
func keyValue(k record.Key) interface{} {
	if id, ok := k.ID(); ok {
		return id
	}
	return nil
}

// errorClass is the trace form of an operation error.
func errorClass(err error) string {
	if record.IsStatementError(err) {
		return "statement"
	}
	return "failed"
}

// stepArgs returns the arguments a step was given, for the trace.
func stepArgs(step FlowStep) map[string]interface{} {
	args := make(map[string]interface{})
	if step.Ref != "" {
		args["ref"] = step.Ref
	}
	if step.PK != nil {
		args["pk"] = *step.PK
	}
	if step.Title != nil {
		args["title"] = *step.Title
	}
	if step.Context != nil {
		args["context"] = *step.Context
	}
	if step.Date != "" {
		args["date"] = step.Date
	}
	if step.SQL != "" {
		args["sql"] = step.SQL
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// matchExpect checks that out contains every expected key with an equal
// value. Returns a description of the first mismatch, or "".
func matchExpect(out, expect map[string]interface{}) string {
	for _, key := range sortedKeys(expect) {
		actual, exists := out[key]
		if !exists {
			return fmt.Sprintf("expected %s = %v, result has no %s (result: %v)", key, expect[key], key, out)
		}
		if !valuesEqual(expect[key], actual) {
			return fmt.Sprintf("expected %s = %v, got %v", key, expect[key], actual)
		}
	}
	return ""
}
