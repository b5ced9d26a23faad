package queuesvc

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
)

// celFilter wraps a compiled CEL program evaluated against batch metadata.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("key", cel.StringType),
		cel.Variable("group", cel.StringType),
		cel.Variable("items", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("created_ms", cel.IntType),
		// Age of the batch for windowed filters
		cel.Variable("age_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one batch. When disabled,
// returns true. Evaluation errors count as non-matches.
func (f celFilter) Eval(info batchqueue.BatchInfo) bool {
	if !f.enabled {
		return true
	}
	nowMs := time.Now().UnixMilli()
	var ageMs int64
	if info.CreatedAtMs > 0 {
		ageMs = nowMs - info.CreatedAtMs
	}
	out, _, err := f.prog.Eval(map[string]any{
		"key":        info.Key,
		"group":      info.Group,
		"items":      int64(info.Items),
		"size":       int64(info.Size),
		"created_ms": info.CreatedAtMs,
		"age_ms":     ageMs,
		"now_ms":     nowMs,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
