package pytype

import "reflect"

// makeDiscoveredSlot builds the rawSlot a discovered native method fills
// a Representation's slot with: it looks the method back up by name at
// call time (rather than capturing a bound reflect.Value once) so the
// same generator works uniformly whether self is the receiver directly
// or arrives boxed through an interface value. The calling convention
// every discovered dunder method must follow is the same (Value...)
// shape the core's own per-signature Func types use (BinaryFunc,
// LenFunc, ...), just as a method instead of a free function — Python's
// own special methods are no less dynamically typed, so this mirrors
// the data model's own convention rather than inventing a new one.
func makeDiscoveredSlot(sm SpecialMethod, goName string) rawSlot {
	return func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		mv := reflect.ValueOf(self).MethodByName(goName)
		if !mv.IsValid() {
			return nil, newInternalError("discovered method %q vanished from %T between discovery and call", goName, self)
		}

		sig := sm.Signature()
		var in []reflect.Value
		switch sig {
		case SigCall, SigInit:
			in = []reflect.Value{reflect.ValueOf(args), reflect.ValueOf(kwargs)}
		default:
			in = make([]reflect.Value, 0, len(args))
			for i, a := range args {
				in = append(in, reflectArgFor(mv.Type(), i, a))
			}
		}

		out := mv.Call(in)
		return unpackSlotResult(sig, out)
	}
}

// reflectArgFor builds the reflect.Value positional argument pos for a
// call to fnType, substituting a properly-typed zero value for a nil
// Value (reflect.ValueOf(nil) is invalid and would panic Call).
func reflectArgFor(fnType reflect.Type, pos int, v Value) reflect.Value {
	if v != nil {
		return reflect.ValueOf(v)
	}
	if pos < fnType.NumIn() {
		return reflect.Zero(fnType.In(pos))
	}
	return reflect.Zero(reflect.TypeOf((*any)(nil)).Elem())
}

// unpackSlotResult translates a discovered method's reflect.Value return
// list back into rawSlot's (Value, error) shape, branching on the
// SpecialMethod's signature family: the error-only families (SetItem,
// DelItem, SetAttr, DelAttr, Init, DescrSet, DescrDelete) return a
// single error value; every other family returns (result, error).
func unpackSlotResult(sig SlotSignature, out []reflect.Value) (Value, error) {
	errorOnly := sig == SigSetItem || sig == SigDelItem || sig == SigSetAttr ||
		sig == SigDelAttr || sig == SigInit || sig == SigDescrSet || sig == SigDescrDelete

	if errorOnly {
		if len(out) == 0 {
			return nil, nil
		}
		return nil, errFromReflect(out[0])
	}

	var val Value
	if len(out) > 0 && !(out[0].Kind() == reflect.Interface && out[0].IsNil()) {
		val = out[0].Interface()
	}
	var err error
	if len(out) > 1 {
		err = errFromReflect(out[1])
	}
	return val, err
}

func errFromReflect(v reflect.Value) error {
	if !v.IsValid() || v.IsNil() {
		return nil
	}
	e, _ := v.Interface().(error)
	return e
}
