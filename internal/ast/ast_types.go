package ast

import "github.com/Yiergot/vehicle/internal/token"

// BuiltinOp names a member of the closed primitive-symbol set (spec.md §6).
type BuiltinOp string

const (
	// Types
	OpBool   BuiltinOp = "Bool"
	OpProp   BuiltinOp = "Prop"
	OpNat    BuiltinOp = "Nat"
	OpInt    BuiltinOp = "Int"
	OpReal   BuiltinOp = "Real"
	OpList   BuiltinOp = "List"
	OpTensor BuiltinOp = "Tensor"

	// Logic
	OpIf       BuiltinOp = "if"
	OpNot      BuiltinOp = "not"
	OpAnd      BuiltinOp = "and"
	OpOr       BuiltinOp = "or"
	OpImplies  BuiltinOp = "implies"

	// Compare
	OpEq  BuiltinOp = "=="
	OpNeq BuiltinOp = "!="
	OpLe  BuiltinOp = "<="
	OpLt  BuiltinOp = "<"
	OpGe  BuiltinOp = ">="
	OpGt  BuiltinOp = ">"

	// Arith
	OpAdd BuiltinOp = "+"
	OpSub BuiltinOp = "-"
	OpMul BuiltinOp = "*"
	OpDiv BuiltinOp = "/"
	OpNeg BuiltinOp = "~"

	// Container
	OpCons BuiltinOp = "::"
	OpAt   BuiltinOp = "!"
	OpMap  BuiltinOp = "map"
	OpFold BuiltinOp = "fold"

	// Quant
	OpEvery   BuiltinOp = "every"
	OpSome    BuiltinOp = "some"
	OpEveryIn BuiltinOp = "everyIn"
	OpSomeIn  BuiltinOp = "someIn"

	// Classes
	OpHasEq        BuiltinOp = "HasEq"
	OpHasOrd       BuiltinOp = "HasOrd"
	OpIsTruth      BuiltinOp = "IsTruth"
	OpIsNatural    BuiltinOp = "IsNatural"
	OpIsIntegral   BuiltinOp = "IsIntegral"
	OpIsRational   BuiltinOp = "IsRational"
	OpIsReal       BuiltinOp = "IsReal"
	OpIsContainer  BuiltinOp = "IsContainer"
	OpIsQuantify   BuiltinOp = "IsQuantify"
)

// Classes is the closed set of type-class builtins spec.md §4.3.2 names.
var Classes = map[BuiltinOp]bool{
	OpHasEq: true, OpHasOrd: true, OpIsTruth: true, OpIsNatural: true,
	OpIsIntegral: true, OpIsRational: true, OpIsReal: true,
	OpIsContainer: true, OpIsQuantify: true,
}

// Arity, in type parameters, of each type class (spec.md §4.3.2; IsContainer
// is the one multi-param class, "IsContainer elem cont").
var ClassArity = map[BuiltinOp]int{
	OpHasEq: 1, OpHasOrd: 1, OpIsTruth: 1, OpIsNatural: 1, OpIsIntegral: 1,
	OpIsRational: 1, OpIsReal: 1, OpIsQuantify: 1, OpIsContainer: 2,
}

func blt(op BuiltinOp) Expr { return &BuiltinExpr{Ann{Prov: token.Machine}, op} }

// --- scheme builder ----------------------------------------------------------
//
// Builtin type schemes are closed, fully dependently-typed Pi-expressions —
// there is no separate "generalize/instantiate" step the way the teacher's
// Hindley-Milner typeOfLiteral (internal/analyzer/inference_literals.go)
// needs one, because Vehicle's "forall t." is just an implicit Pi over
// Type 0 and ordinary substitution does the rest once the elaborator
// checks an argument against it. schemeBuilder lets each scheme be written
// with named placeholders and converts them to de Bruijn indices as it
// goes, rather than requiring hand-counted indices at each call site.
type schemeBuilder struct{ env []string }

func (b *schemeBuilder) pi(vis Visibility, name string, ty Expr, cont func(*schemeBuilder) Expr) Expr {
	nb := &schemeBuilder{env: append(append([]string{}, b.env...), name)}
	result := cont(nb)
	var namePtr *string
	if name != "" {
		n := name
		namePtr = &n
	}
	return &PiExpr{Ann{Prov: token.Machine}, Binder{Prov: token.Machine, Origin: OriginMachine, Visibility: vis, Name: namePtr, Type: ty}, result}
}

func (b *schemeBuilder) ref(name string) Expr {
	for i := len(b.env) - 1; i >= 0; i-- {
		if b.env[i] == name {
			return &VarExpr{Ann{Prov: token.Machine}, BoundVar{Index: len(b.env) - 1 - i}}
		}
	}
	panic("ast: unknown scheme variable " + name)
}

func (b *schemeBuilder) app(fun Expr, vis Visibility, args ...Expr) Expr {
	as := make([]Argument, len(args))
	for i, a := range args {
		as[i] = Argument{Prov: token.Machine, Origin: OriginMachine, Visibility: vis, Value: a}
	}
	return NewApp(token.Machine, fun, as...)
}

func scheme(build func(*schemeBuilder) Expr) Expr {
	return build(&schemeBuilder{})
}

func class1(op BuiltinOp, tname string, b *schemeBuilder) Expr {
	return b.app(blt(op), Explicit, b.ref(tname))
}

// arrow builds a non-dependent `paramRefName -> resultRefName` Pi. Both
// names are resolved fresh in each nested builder so the de Bruijn index
// shift introduced by the new anonymous binder is automatic — building the
// Expr values ahead of time with the outer builder and splicing them in
// would leave their indices one short, since they'd skip the binder they
// now sit under.
func (b *schemeBuilder) arrow(paramRefName, resultRefName string) Expr {
	return b.pi(Explicit, "", b.ref(paramRefName), func(b2 *schemeBuilder) Expr {
		return b2.ref(resultRefName)
	})
}

// TypeOfBuiltin returns the closed type scheme for a builtin symbol
// (spec.md §4.3 "Builtin op: look up closed type scheme from a fixed
// table", §6 "Types of builtins").
func TypeOfBuiltin(op BuiltinOp) Expr {
	u0 := &UniverseExpr{Ann{Prov: token.Machine}, 0}

	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsNatural, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
							return b.ref("t")
						})
					})
				})
			})
		})
	case OpNeg:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsNatural, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.ref("t")
					})
				})
			})
		})
	case OpEq, OpNeq:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpHasEq, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
							return blt(OpBool)
						})
					})
				})
			})
		})
	case OpLe, OpLt, OpGe, OpGt:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpHasOrd, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
							return blt(OpBool)
						})
					})
				})
			})
		})
	case OpNot:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsTruth, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.ref("t")
					})
				})
			})
		})
	case OpAnd, OpOr, OpImplies:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsTruth, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
							return b.ref("t")
						})
					})
				})
			})
		})
	case OpIf:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Explicit, "_", blt(OpProp), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("t"), func(b *schemeBuilder) Expr {
							return b.ref("t")
						})
					})
				})
			})
		})
	case OpCons:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "e", u0, func(b *schemeBuilder) Expr {
				return b.pi(Implicit, "c", u0, func(b *schemeBuilder) Expr {
					return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("e"), b.ref("c")), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("e"), func(b *schemeBuilder) Expr {
							return b.pi(Explicit, "_", b.ref("c"), func(b *schemeBuilder) Expr {
								return b.ref("c")
							})
						})
					})
				})
			})
		})
	case OpAt:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "e", u0, func(b *schemeBuilder) Expr {
				return b.pi(Implicit, "c", u0, func(b *schemeBuilder) Expr {
					return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("e"), b.ref("c")), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "_", b.ref("c"), func(b *schemeBuilder) Expr {
							return b.pi(Explicit, "_", blt(OpNat), func(b *schemeBuilder) Expr {
								return b.ref("e")
							})
						})
					})
				})
			})
		})
	case OpMap:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "a", u0, func(b *schemeBuilder) Expr {
				return b.pi(Implicit, "bb", u0, func(b *schemeBuilder) Expr {
					return b.pi(Implicit, "c", u0, func(b *schemeBuilder) Expr {
						return b.pi(Implicit, "d", u0, func(b *schemeBuilder) Expr {
							return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("a"), b.ref("c")), func(b *schemeBuilder) Expr {
								return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("bb"), b.ref("d")), func(b *schemeBuilder) Expr {
									return b.pi(Explicit, "", b.arrow("a", "bb"), func(b2 *schemeBuilder) Expr {
										return b2.pi(Explicit, "", b2.ref("c"), func(b3 *schemeBuilder) Expr {
											return b3.ref("d")
										})
									})
								})
							})
						})
					})
				})
			})
		})
	case OpFold:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "a", u0, func(b *schemeBuilder) Expr {
				return b.pi(Implicit, "bb", u0, func(b *schemeBuilder) Expr {
					return b.pi(Implicit, "c", u0, func(b *schemeBuilder) Expr {
						return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("a"), b.ref("c")), func(b *schemeBuilder) Expr {
							return b.pi(Explicit, "", b.pi(Explicit, "", b.ref("a"), func(bi *schemeBuilder) Expr {
								return bi.pi(Explicit, "", bi.ref("bb"), func(bj *schemeBuilder) Expr {
									return bj.ref("bb")
								})
							}), func(b2 *schemeBuilder) Expr {
								return b2.pi(Explicit, "", b2.ref("bb"), func(b3 *schemeBuilder) Expr {
									return b3.pi(Explicit, "", b3.ref("c"), func(b4 *schemeBuilder) Expr {
										return b4.ref("bb")
									})
								})
							})
						})
					})
				})
			})
		})
	case OpEvery, OpSome:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsQuantify, "t", b), func(b *schemeBuilder) Expr {
					return b.pi(Explicit, "", b.pi(Explicit, "", b.ref("t"), func(bi *schemeBuilder) Expr {
						return blt(OpProp)
					}), func(b2 *schemeBuilder) Expr {
						return blt(OpProp)
					})
				})
			})
		})
	case OpEveryIn, OpSomeIn:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Implicit, "c", u0, func(b *schemeBuilder) Expr {
					return b.pi(Instance, "_", b.app(blt(OpIsContainer), Explicit, b.ref("t"), b.ref("c")), func(b *schemeBuilder) Expr {
						return b.pi(Explicit, "", b.pi(Explicit, "", b.ref("t"), func(bi *schemeBuilder) Expr {
							return blt(OpProp)
						}), func(b2 *schemeBuilder) Expr {
							return b2.pi(Explicit, "", b2.ref("c"), func(b3 *schemeBuilder) Expr {
								return blt(OpProp)
							})
						})
					})
				})
			})
		})
	case OpHasEq, OpHasOrd, OpIsTruth, OpIsNatural, OpIsIntegral, OpIsRational, OpIsReal, OpIsQuantify:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Explicit, "_", u0, func(b *schemeBuilder) Expr {
				return blt(OpProp)
			})
		})
	case OpIsContainer:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Explicit, "_", u0, func(b *schemeBuilder) Expr {
				return b.pi(Explicit, "_", u0, func(b *schemeBuilder) Expr {
					return blt(OpProp)
				})
			})
		})
	case OpBool, OpProp, OpNat, OpInt, OpReal:
		return u0
	case OpList:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Explicit, "_", u0, func(b *schemeBuilder) Expr { return u0 })
		})
	case OpTensor:
		// Tensor elem shape : Type 0, shape a `List Nat` literal giving the
		// dimensions (spec.md §4.5 step 2 "Tensor Real [n]"). Shape isn't
		// itself dependently checked against a length here — the VNNLib
		// backend is the only consumer that cares what shape actually
		// contains, and it inspects the normalised Seq literal directly.
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Explicit, "_", u0, func(b *schemeBuilder) Expr {
				return b.pi(Explicit, "_", b.app(blt(OpList), Explicit, blt(OpNat)), func(b *schemeBuilder) Expr {
					return u0
				})
			})
		})
	default:
		return u0
	}
}

// TypeOfLiteral returns the closed type scheme for a literal family
// (spec.md §4.3 "Literal: dispatch to typeOfLiteral, which returns a
// polymorphic forall t. IsKind t => t skeleton"). Numeric literals are
// overloaded across every type their class permits — a Nat literal
// like 3 can stand for a Nat, an Int, a Rat, or a Real — so each scheme
// is a single Instance-constrained forall, not a concrete type. Bool
// has no such family: it is simply Bool.
func TypeOfLiteral(k LiteralKind) Expr {
	u0 := &UniverseExpr{Ann{Prov: token.Machine}, 0}
	switch k {
	case LitNat:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsNatural, "t", b), func(b *schemeBuilder) Expr {
					return b.ref("t")
				})
			})
		})
	case LitInt:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsIntegral, "t", b), func(b *schemeBuilder) Expr {
					return b.ref("t")
				})
			})
		})
	case LitRat:
		return scheme(func(b *schemeBuilder) Expr {
			return b.pi(Implicit, "t", u0, func(b *schemeBuilder) Expr {
				return b.pi(Instance, "_", class1(OpIsRational, "t", b), func(b *schemeBuilder) Expr {
					return b.ref("t")
				})
			})
		})
	default: // LitBool
		return blt(OpBool)
	}
}

