package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/testutil"
	"github.com/hupe1980/agentruntime/registry"
)

type tracker struct{ ran []string }

func (tr *tracker) evaluator(name string, optFns ...func(o *component.EvaluatorOptions)) core.Evaluator {
	return component.NewEvaluator(name, func(context.Context, core.Runtime, *core.Memory, *core.State, core.HandlerCallback, []*core.Memory) error {
		tr.ran = append(tr.ran, name)
		return nil
	}, optFns...)
}

func alwaysRun(o *component.EvaluatorOptions) { o.AlwaysRun = true }

func newRunner(t *testing.T, evaluators ...core.Evaluator) *Runner {
	t.Helper()

	reg := registry.New()
	for _, e := range evaluators {
		require.NoError(t, reg.AddEvaluator(e))
	}
	return NewRunner(reg)
}

func TestRunRespectsDidRespond(t *testing.T) {
	tr := &tracker{}
	runner := newRunner(t, tr.evaluator("ALWAYS", alwaysRun), tr.evaluator("ON_RESPONSE"))
	msg := testutil.NewMessageBuilder().Build()

	ran := runner.Run(context.Background(), nil, msg, core.NewState(), false, nil, nil)
	require.Len(t, ran, 1)
	assert.Equal(t, "ALWAYS", ran[0].Name())

	ran = runner.Run(context.Background(), nil, msg, core.NewState(), true, nil, nil)
	require.Len(t, ran, 2)
	assert.Equal(t, []string{"ALWAYS", "ALWAYS", "ON_RESPONSE"}, tr.ran)
}

func TestRunReturnsNilWhenNothingRan(t *testing.T) {
	tr := &tracker{}
	runner := newRunner(t, tr.evaluator("ON_RESPONSE"))

	assert.Nil(t, runner.Run(context.Background(), nil, testutil.NewMessageBuilder().Build(), nil, false, nil, nil))
	assert.Nil(t, newRunner(t).Run(context.Background(), nil, nil, nil, true, nil, nil))
}

func TestRunSkipsInvalid(t *testing.T) {
	tr := &tracker{}
	runner := newRunner(t,
		tr.evaluator("INVALID", func(o *component.EvaluatorOptions) {
			o.Validate = func(context.Context, core.Runtime, *core.Memory, *core.State) (bool, error) { return false, nil }
		}),
		tr.evaluator("ERRORING", func(o *component.EvaluatorOptions) {
			o.Validate = func(context.Context, core.Runtime, *core.Memory, *core.State) (bool, error) {
				return true, errors.New("validate failed")
			}
		}),
		tr.evaluator("VALID"),
	)

	ran := runner.Run(context.Background(), nil, nil, nil, true, nil, nil)
	require.Len(t, ran, 1)
	assert.Equal(t, "VALID", ran[0].Name())
	assert.Equal(t, []string{"VALID"}, tr.ran)
}

func TestRunIsolatesHandlerFailures(t *testing.T) {
	tr := &tracker{}
	failing := component.NewEvaluator("FAIL", func(context.Context, core.Runtime, *core.Memory, *core.State, core.HandlerCallback, []*core.Memory) error {
		return errors.New("boom")
	}, alwaysRun)
	panicking := component.NewEvaluator("PANIC", func(context.Context, core.Runtime, *core.Memory, *core.State, core.HandlerCallback, []*core.Memory) error {
		panic("kaboom")
	}, alwaysRun)

	runner := newRunner(t, failing, panicking, tr.evaluator("OK", alwaysRun))

	ran := runner.Run(context.Background(), nil, nil, nil, false, nil, nil)
	require.Len(t, ran, 3)
	assert.Equal(t, "FAIL", ran[0].Name())
	assert.Equal(t, "PANIC", ran[1].Name())
	assert.Equal(t, "OK", ran[2].Name())
	assert.Equal(t, []string{"OK"}, tr.ran)
}

func TestRunReportsSoleFailingEvaluator(t *testing.T) {
	failing := component.NewEvaluator("FAIL", func(context.Context, core.Runtime, *core.Memory, *core.State, core.HandlerCallback, []*core.Memory) error {
		return errors.New("boom")
	}, alwaysRun)

	ran := newRunner(t, failing).Run(context.Background(), nil, nil, nil, true, nil, nil)
	require.Len(t, ran, 1)
	assert.Equal(t, "FAIL", ran[0].Name())
}

func TestRunStopsOnCancellation(t *testing.T) {
	tr := &tracker{}
	runner := newRunner(t, tr.evaluator("A", alwaysRun))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, runner.Run(ctx, nil, nil, nil, true, nil, nil))
	assert.Empty(t, tr.ran)
}
