package ast

// DelayOperand is the length argument of a delay statement. The set of
// implementations is closed; switch over it with a type switch.
type DelayOperand interface {
	isDelayOperand()
}

// DelayBinary is a duration-valued binary expression, e.g. delay[a + 10ns].
type DelayBinary struct{ Expr ExprID }

// DelayUnary is a duration-valued unary expression, e.g. delay[-a].
type DelayUnary struct{ Expr ExprID }

// DelayDurationOf is delay[durationof({...})].
type DelayDurationOf struct{ Expr ExprID }

// DelayLiteral is a literal length such as 100ns.
type DelayLiteral struct{ Value Duration }

// DelayStretch refers to a stretch (or duration) variable.
type DelayStretch struct{ Ident IdentID }

func (DelayBinary) isDelayOperand()     {}
func (DelayUnary) isDelayOperand()      {}
func (DelayDurationOf) isDelayOperand() {}
func (DelayLiteral) isDelayOperand()    {}
func (DelayStretch) isDelayOperand()    {}
