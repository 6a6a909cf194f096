package command

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestExecWorkflowExitCodes(t *testing.T) {
	code, err := ExecWorkflow(context.Background(), nil, "sh", "-c", "exit 0")

	assert.NilError(t, err)
	assert.Equal(t, code, 0)

	code, err = ExecWorkflow(context.Background(), nil, "sh", "-c", "exit 3")

	assert.Assert(t, err != nil)
	assert.Equal(t, code, 3)
}

func TestExecWorkflowMissingBinary(t *testing.T) {
	code, err := ExecWorkflow(context.Background(), nil, "/no/such/interpreter")

	assert.Assert(t, err != nil)
	assert.Equal(t, code, -1)
}

func TestExecWorkflowPassesExtraEnv(t *testing.T) {
	code, err := ExecWorkflow(context.Background(), []string{"PAGEGEN_TEST_ENV=yes"},
		"sh", "-c", `test "$PAGEGEN_TEST_ENV" = yes`)

	assert.NilError(t, err)
	assert.Equal(t, code, 0)
}

func TestOnlyExec(t *testing.T) {
	out, err := OnlyExec("echo", "with spaces preserved")

	assert.NilError(t, err)
	assert.Equal(t, out, "with spaces preserved\n")
}
