package elaborate

import "github.com/Yiergot/vehicle/internal/verrors"

// SolveConstraints runs the fixed-point loop spec.md §4.3 specifies:
// apply the current substitution to every pending constraint, try each
// once, accumulate Progress, and repeat until either the pending set is
// empty (success) or an iteration makes no progress at all (failure).
// Grounded on the teacher's InferenceContext.SolveConstraints
// (inference_solver.go) "changed := true; for changed { ... }" shape,
// generalized from a single unify-only loop to the two-constraint-kind
// loop spec.md describes, with Progress made an explicit value instead
// of a bare bool (spec.md §9 "expose it as a small value type rather
// than as exceptions").
func (mc *MetaContext) SolveConstraints() error {
	for {
		if len(mc.pending) == 0 {
			return nil
		}
		current := mc.pending
		mc.pending = nil

		var p progress
		var requeued []Constraint
		var firstErr error
		for _, c := range current {
			switch c.Kind {
			case KindUnify:
				out, solved, err := unify(mc, AtDepth(c.Depth), c.E1, c.E2, c.Prov)
				p.solvedMetas += solved
				switch out {
				case unifyDefer:
					requeued = append(requeued, c)
				case unifyFail:
					if firstErr == nil {
						firstErr = err
					}
				}
			case KindHas:
				dict, sub, solved, err := resolveClass(mc, c)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				if !solved {
					requeued = append(requeued, c)
					continue
				}
				mc.Solve(c.Meta, dict)
				p.solvedMetas++
				p.newConstraints = append(p.newConstraints, sub...)
			}
		}

		if firstErr != nil {
			return firstErr
		}

		mc.pending = append(requeued, p.newConstraints...)
		if p.isStuck() && len(mc.pending) > 0 {
			msgs := make([]string, 0, len(mc.pending))
			for _, c := range mc.pending {
				msgs = append(msgs, constraintMessage(c))
			}
			return &verrors.UnsolvedConstraints{Messages: msgs, Prov: mc.pending[0].Prov}
		}
	}
}

func constraintMessage(c Constraint) string {
	switch c.Kind {
	case KindUnify:
		return describe(c.E1) + " ~ " + describe(c.E2)
	default:
		return string(c.Class) + " constraint"
	}
}
