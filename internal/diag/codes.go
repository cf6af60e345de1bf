package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// action scripts
	ScrInfo            Code = 1000
	ScrInvalidJSON     Code = 1001
	ScrSchemaViolation Code = 1002
	ScrUnknownAction   Code = 1003
	ScrBadOperand      Code = 1004
	ScrUnknownType     Code = 1005
	ScrUnbalanced      Code = 1006

	// expression and declaration semantics
	SemaInfo                   Code = 3000
	SemaUndeclaredIdentifier   Code = 3001
	SemaDuplicateSymbol        Code = 3002
	SemaTypeMismatch           Code = 3003
	SemaInvalidBinaryOperands  Code = 3004
	SemaInvalidUnaryOperand    Code = 3005
	SemaBadCast                Code = 3006
	SemaCastTruncation         Code = 3007
	SemaInvalidImplicitConv    Code = 3008
	SemaNotAssignable          Code = 3009
	SemaAssignToConst          Code = 3010
	SemaInvalidDuration        Code = 3011
	SemaOpenPulseArithmetic    Code = 3012
	SemaAngleOperator          Code = 3013
	SemaNotIndexable           Code = 3014
	SemaIndexOutOfRange        Code = 3015
	SemaInvalidWidth           Code = 3016
	SemaNotAGate               Code = 3017
	SemaGateParamArity         Code = 3018
	SemaGateQubitArity         Code = 3019
	SemaGateOperandNotQubit    Code = 3020
	SemaMeasureTarget          Code = 3021
	SemaMeasureIntoAngle       Code = 3022
	SemaNotCallable            Code = 3023
	SemaCallArity              Code = 3024
	SemaUnsupportedOperator    Code = 3025
	SemaInvalidArrayElement    Code = 3026
	SemaConstWithoutInit       Code = 3027
	SemaNonConstInit           Code = 3028
	SemaReturnType             Code = 3029
	SemaConditionType          Code = 3030
	SemaDefcalRedefinition     Code = 3031
	SemaCalibrationOnly        Code = 3032
	SemaShadowsGlobal          Code = 3033
	SemaQubitNotGlobal         Code = 3034
	SemaDelayOperand           Code = 3035
	SemaLoopRangeType          Code = 3036
	SemaDivisionByZeroConstant Code = 3037

	// control flow placement
	CfgInfo                 Code = 4000
	CfgElseWithoutIf        Code = 4001
	CfgElseIfWithoutIf      Code = 4002
	CfgCaseOutsideSwitch    Code = 4003
	CfgDefaultOutsideSwitch Code = 4004
	CfgBreakOutsideLoop     Code = 4005
	CfgContinueOutsideLoop  Code = 4006
	CfgReturnOutsideFunc    Code = 4007
	CfgSwitchNoDefault      Code = 4008
	CfgDuplicateCaseLabel   Code = 4009
	CfgCaseLabelNotConst    Code = 4010
	CfgUnbalancedBraces     Code = 4011
	CfgDuplicateDefault     Code = 4012
	CfgSwitchNotInteger     Code = 4013
	CfgUnclosedConstruct    Code = 4014
	CfgElseAfterElse        Code = 4015

	// I/O and configuration
	IOInfo           Code = 5000
	IOLoadFileError  Code = 5001
	IOConfigInvalid  Code = 5002
	IOExportFailed   Code = 5003
	IOConfigNotFound Code = 5004

	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// internal compiler errors
	ICEInfo             Code = 9000
	ICESymbolTransfer   Code = 9001
	ICEContextMisuse    Code = 9002
	ICEUnresolvedMangle Code = 9003
	ICETableInsert      Code = 9004
	ICETrackerState     Code = 9005
	ICEWrapperLeaf      Code = 9006
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                "Unknown error",
		ScrInfo:                    "Action script information",
		ScrInvalidJSON:             "Action script is not valid JSON",
		ScrSchemaViolation:         "Action script does not match the schema",
		ScrUnknownAction:           "Unknown action",
		ScrBadOperand:              "Action operand refers to an unknown node",
		ScrUnknownType:             "Unknown type name",
		ScrUnbalanced:              "Action script leaves constructs open",
		SemaInfo:                   "Semantic information",
		SemaUndeclaredIdentifier:   "Undeclared identifier",
		SemaDuplicateSymbol:        "Duplicate symbol in the same declaration context",
		SemaTypeMismatch:           "Type mismatch",
		SemaInvalidBinaryOperands:  "Invalid operand types for binary operator",
		SemaInvalidUnaryOperand:    "Invalid operand type for unary operator",
		SemaBadCast:                "Illegal cast",
		SemaCastTruncation:         "Conversion truncates the value",
		SemaInvalidImplicitConv:    "Invalid implicit conversion",
		SemaNotAssignable:          "Expression is not assignable",
		SemaAssignToConst:          "Assignment to a const symbol",
		SemaInvalidDuration:        "Invalid duration literal",
		SemaOpenPulseArithmetic:    "OpenPulse types do not support arithmetic",
		SemaAngleOperator:          "Operator is not defined for angle operands",
		SemaNotIndexable:           "Type cannot be indexed",
		SemaIndexOutOfRange:        "Index out of range",
		SemaInvalidWidth:           "Invalid width designator",
		SemaNotAGate:               "Callee is not a gate",
		SemaGateParamArity:         "Wrong number of gate parameters",
		SemaGateQubitArity:         "Wrong number of gate qubit operands",
		SemaGateOperandNotQubit:    "Gate operand is not a qubit",
		SemaMeasureTarget:          "Measurement cannot be stored in this type",
		SemaMeasureIntoAngle:       "Measurement stored into an angle",
		SemaNotCallable:            "Symbol is not callable",
		SemaCallArity:              "Wrong number of call arguments",
		SemaUnsupportedOperator:    "Unsupported operator",
		SemaInvalidArrayElement:    "Type cannot be an array element",
		SemaConstWithoutInit:       "Const declaration without initializer",
		SemaNonConstInit:           "Const initializer is not a constant expression",
		SemaReturnType:             "Return value does not match the function result",
		SemaConditionType:          "Condition is not convertible to bool",
		SemaDefcalRedefinition:     "Defcal with the same signature already defined",
		SemaCalibrationOnly:        "Declaration is only allowed in calibration context",
		SemaShadowsGlobal:          "Local declaration shadows a global symbol",
		SemaQubitNotGlobal:         "Qubits may only be declared in global scope",
		SemaDelayOperand:           "Invalid delay operand",
		SemaLoopRangeType:          "Loop range is not an integer set",
		SemaDivisionByZeroConstant: "Constant division by zero",
		CfgInfo:                    "Control flow information",
		CfgElseWithoutIf:           "'else' without a matching 'if'",
		CfgElseIfWithoutIf:         "'else if' without a matching 'if'",
		CfgCaseOutsideSwitch:       "'case' outside a switch",
		CfgDefaultOutsideSwitch:    "'default' outside a switch",
		CfgBreakOutsideLoop:        "'break' outside a loop",
		CfgContinueOutsideLoop:     "'continue' outside a loop",
		CfgReturnOutsideFunc:       "'return' outside a function",
		CfgSwitchNoDefault:         "Switch has no default case",
		CfgDuplicateCaseLabel:      "Duplicate case label",
		CfgCaseLabelNotConst:       "Case label is not an integer constant",
		CfgUnbalancedBraces:        "Unbalanced braces",
		CfgDuplicateDefault:        "Switch has more than one default",
		CfgSwitchNotInteger:        "Switch controlling expression is not an integer",
		CfgUnclosedConstruct:       "Construct was never closed",
		CfgElseAfterElse:           "'else' after the final 'else'",
		IOInfo:                     "I/O information",
		IOLoadFileError:            "I/O load file error",
		IOConfigInvalid:            "Invalid configuration",
		IOExportFailed:             "Export failed",
		IOConfigNotFound:           "Configuration file not found",
		ObsInfo:                    "Observability information",
		ObsTimings:                 "Pipeline timings",
		ICEInfo:                    "Internal compiler information",
		ICESymbolTransfer:          "Symbol transfer target already holds an entry",
		ICEContextMisuse:           "Declaration context misuse",
		ICEUnresolvedMangle:        "Mangle requested for an unresolved node",
		ICETableInsert:             "Symbol table insertion failed",
		ICETrackerState:            "Control flow tracker in an impossible state",
		ICEWrapperLeaf:             "Wrapper tag reached leaf type resolution",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SCR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
