package pytype

// computeC3MRO computes the Method Resolution Order for a type with the
// given bases using C3 linearization: for a type T with bases B1..Bn,
// MRO(T) = [T] + merge(MRO(B1), ..., MRO(Bn), [B1, ..., Bn]).
//
// Ported from the host interpreter's (*VM).ComputeC3MRO
// (internal/runtime/builtins_classes.go), generalized from *runtime.PyClass
// to *PyType and returning a typed *MROConflictError instead of a
// *PyException.
func computeC3MRO(self *PyType, bases []*PyType) ([]*PyType, error) {
	if len(bases) == 0 {
		return []*PyType{self}, nil
	}

	var toMerge [][]*PyType
	for _, base := range bases {
		baseMRO := make([]*PyType, len(base.mro))
		copy(baseMRO, base.mro)
		toMerge = append(toMerge, baseMRO)
	}
	basesCopy := make([]*PyType, len(bases))
	copy(basesCopy, bases)
	toMerge = append(toMerge, basesCopy)

	result := []*PyType{self}

	for {
		var nonEmpty [][]*PyType
		for _, list := range toMerge {
			if len(list) > 0 {
				nonEmpty = append(nonEmpty, list)
			}
		}
		toMerge = nonEmpty
		if len(toMerge) == 0 {
			break
		}

		var candidate *PyType
		for _, list := range toMerge {
			head := list[0]
			inTail := false
			for _, other := range toMerge {
				for i := 1; i < len(other); i++ {
					if other[i] == head {
						inTail = true
						break
					}
				}
				if inTail {
					break
				}
			}
			if !inTail {
				candidate = head
				break
			}
		}

		if candidate == nil {
			names := make([]string, len(bases))
			for i, b := range bases {
				names[i] = b.name
			}
			return nil, &MROConflictError{TypeName: self.name, Bases: names}
		}

		result = append(result, candidate)
		for i := range toMerge {
			if len(toMerge[i]) > 0 && toMerge[i][0] == candidate {
				toMerge[i] = toMerge[i][1:]
			}
		}
	}

	return result, nil
}
