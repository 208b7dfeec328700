package pytype

import "fmt"

// Value is any value flowing through the type system: a native Go value,
// a *PyType, or an instance produced by a collaborator (the bytecode
// evaluator, the concrete builtin types, ...). The core never assumes
// more about it than "reflect.TypeOf(v) identifies its native class".
type Value = any

// SpecialMethod enumerates the dunder slots a Representation can fill.
// The set mirrors CPython's type slots closely enough to dispatch the
// data model; it is not exhaustive of every dunder name Python exposes,
// only of the ones the core needs a fixed, branch-free dispatch point
// for. New slots are appended, never inserted, so slot indices in
// serialized test fixtures stay stable.
type SpecialMethod int

const (
	SMRepr SpecialMethod = iota
	SMStr
	SMHash
	SMCall
	SMGetAttribute
	SMSetAttr
	SMDelAttr
	SMGet
	SMSet
	SMDelete
	SMIter
	SMNext
	SMGetItem
	SMSetItem
	SMDelItem
	SMLen
	SMBool
	SMNew
	SMInit
	SMDel

	SMAdd
	SMRAdd
	SMSub
	SMRSub
	SMMul
	SMRMul
	SMTrueDiv
	SMRTrueDiv
	SMFloorDiv
	SMRFloorDiv
	SMMod
	SMRMod
	SMPow
	SMRPow
	SMLShift
	SMRLShift
	SMRShift
	SMRRShift
	SMAnd
	SMRAnd
	SMOr
	SMROr
	SMXor
	SMRXor
	SMMatMul
	SMRMatMul

	SMNeg
	SMPos
	SMAbs
	SMInvert

	SMLt
	SMLe
	SMEq
	SMNe
	SMGt
	SMGe

	numSpecialMethod
)

var specialMethodNames = [numSpecialMethod]string{
	SMRepr: "__repr__", SMStr: "__str__", SMHash: "__hash__", SMCall: "__call__",
	SMGetAttribute: "__getattribute__", SMSetAttr: "__setattr__", SMDelAttr: "__delattr__",
	SMGet: "__get__", SMSet: "__set__", SMDelete: "__delete__",
	SMIter: "__iter__", SMNext: "__next__",
	SMGetItem: "__getitem__", SMSetItem: "__setitem__", SMDelItem: "__delitem__",
	SMLen: "__len__", SMBool: "__bool__", SMNew: "__new__", SMInit: "__init__", SMDel: "__del__",
	SMAdd: "__add__", SMRAdd: "__radd__", SMSub: "__sub__", SMRSub: "__rsub__",
	SMMul: "__mul__", SMRMul: "__rmul__", SMTrueDiv: "__truediv__", SMRTrueDiv: "__rtruediv__",
	SMFloorDiv: "__floordiv__", SMRFloorDiv: "__rfloordiv__", SMMod: "__mod__", SMRMod: "__rmod__",
	SMPow: "__pow__", SMRPow: "__rpow__", SMLShift: "__lshift__", SMRLShift: "__rlshift__",
	SMRShift: "__rshift__", SMRRShift: "__rrshift__", SMAnd: "__and__", SMRAnd: "__rand__",
	SMOr: "__or__", SMROr: "__ror__", SMXor: "__xor__", SMRXor: "__rxor__",
	SMMatMul: "__matmul__", SMRMatMul: "__rmatmul__",
	SMNeg: "__neg__", SMPos: "__pos__", SMAbs: "__abs__", SMInvert: "__invert__",
	SMLt: "__lt__", SMLe: "__le__", SMEq: "__eq__", SMNe: "__ne__", SMGt: "__gt__", SMGe: "__ge__",
}

// String returns the dunder name for sm, e.g. SMAdd.String() == "__add__".
func (sm SpecialMethod) String() string {
	if sm < 0 || sm >= numSpecialMethod {
		return fmt.Sprintf("SpecialMethod(%d)", int(sm))
	}
	return specialMethodNames[sm]
}

// SlotSignature identifies the calling convention a SpecialMethod uses.
// Every slot belongs to exactly one signature family; WrapperDescriptor
// uses this to marshal arguments without per-dunder special-casing.
type SlotSignature int

const (
	SigUnary SlotSignature = iota
	SigBinary
	SigTernary
	SigPredicate
	SigLen
	SigGetItem
	SigSetItem
	SigDelItem
	SigGetAttr
	SigSetAttr
	SigDelAttr
	SigDescrGet
	SigDescrSet
	SigDescrDelete
	SigInit
	SigCall
)

var slotSignatures = [numSpecialMethod]SlotSignature{
	SMRepr: SigUnary, SMStr: SigUnary, SMHash: SigUnary,
	SMCall: SigCall,
	SMGetAttribute: SigGetAttr, SMSetAttr: SigSetAttr, SMDelAttr: SigDelAttr,
	SMGet: SigDescrGet, SMSet: SigDescrSet, SMDelete: SigDescrDelete,
	SMIter: SigUnary, SMNext: SigUnary,
	SMGetItem: SigGetItem, SMSetItem: SigSetItem, SMDelItem: SigDelItem,
	SMLen: SigLen, SMBool: SigPredicate,
	SMNew: SigCall, SMInit: SigInit, SMDel: SigUnary,

	SMAdd: SigBinary, SMRAdd: SigBinary, SMSub: SigBinary, SMRSub: SigBinary,
	SMMul: SigBinary, SMRMul: SigBinary, SMTrueDiv: SigBinary, SMRTrueDiv: SigBinary,
	SMFloorDiv: SigBinary, SMRFloorDiv: SigBinary, SMMod: SigBinary, SMRMod: SigBinary,
	SMPow: SigTernary, SMRPow: SigTernary,
	SMLShift: SigBinary, SMRLShift: SigBinary, SMRShift: SigBinary, SMRRShift: SigBinary,
	SMAnd: SigBinary, SMRAnd: SigBinary, SMOr: SigBinary, SMROr: SigBinary,
	SMXor: SigBinary, SMRXor: SigBinary, SMMatMul: SigBinary, SMRMatMul: SigBinary,

	SMNeg: SigUnary, SMPos: SigUnary, SMAbs: SigUnary, SMInvert: SigUnary,

	SMLt: SigBinary, SMLe: SigBinary, SMEq: SigBinary, SMNe: SigBinary, SMGt: SigBinary, SMGe: SigBinary,
}

// Signature returns the calling convention for sm.
func (sm SpecialMethod) Signature() SlotSignature {
	return slotSignatures[sm]
}

// Per-signature function shapes. Representation setters accept these
// directly so a caller filling a slot gets a compile error, not a panic,
// if it hands over the wrong shape.
type (
	UnaryFunc       func(self Value) (Value, error)
	BinaryFunc      func(self, other Value) (Value, error)
	TernaryFunc     func(self, a, b Value) (Value, error)
	PredicateFunc   func(self Value) (bool, error)
	LenFunc         func(self Value) (int, error)
	GetItemFunc     func(self, key Value) (Value, error)
	SetItemFunc     func(self, key, value Value) error
	DelItemFunc     func(self, key Value) error
	GetAttrFunc     func(self Value, name string) (Value, error)
	SetAttrFunc     func(self Value, name string, value Value) error
	DelAttrFunc     func(self Value, name string) error
	DescrGetFunc    func(self, obj, owner Value) (Value, error)
	DescrSetFunc    func(self, obj, value Value) error
	DescrDeleteFunc func(self, obj Value) error
	InitFunc        func(self Value, args []Value, kwargs map[string]Value) error
	CallFunc        func(self Value, args []Value, kwargs map[string]Value) (Value, error)
)
