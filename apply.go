// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kont

import "sort"

// evalApply rewrites an Apply node into a left-to-right FlatMap chain
// over its Args then its (key-sorted, for determinism) Kwargs, calling
// F once every argument has resolved to a value.
func (vm *VM) evalApply(seg *segment, c Apply) Mode {
	seg.prog = buildApplyChain(c)
	return handleYieldMode(seg.prog)
}

func buildApplyChain(c Apply) DoCtrl {
	keys := make([]string, 0, len(c.Kwargs))
	for k := range c.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]DoCtrl, 0, len(c.Args)+len(keys))
	exprs = append(exprs, c.Args...)
	for _, k := range keys {
		exprs = append(exprs, c.Kwargs[k])
	}

	finish := func(vals []any) DoCtrl {
		args := append([]any(nil), vals[:len(c.Args)]...)
		kwargs := make(map[string]any, len(keys))
		for i, k := range keys {
			kwargs[k] = vals[len(c.Args)+i]
		}
		result := c.F.Call(args, kwargs)
		if c.EvaluateResult {
			return result
		}
		return Pure{Value: result}
	}

	// Fast path: every argument is already a literal, so no dispatch or
	// host round-trip is needed to resolve them (§4.6's Apply
	// optimization).
	allPure := true
	vals := make([]any, len(exprs))
	for i, e := range exprs {
		if p, ok := e.(Pure); ok {
			vals[i] = p.Value
			continue
		}
		allPure = false
		break
	}
	if allPure {
		return finish(vals)
	}

	return sequenceApply(exprs, 0, make([]any, len(exprs)), finish)
}

func sequenceApply(exprs []DoCtrl, i int, vals []any, finish func([]any) DoCtrl) DoCtrl {
	if i >= len(exprs) {
		return finish(vals)
	}
	return FlatMap{Source: exprs[i], Binder: func(v any) DoCtrl {
		vals[i] = v
		return sequenceApply(exprs, i+1, vals, finish)
	}}
}
