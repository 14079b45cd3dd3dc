package instr

// Equivalent reports whether two element lists are the same program up to
// the identity of their labels and region markers.
func Equivalent(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	targets := map[Target]Target{}
	regions := map[*TryBegin]*TryBegin{}
	sameTarget := func(x, y Target) bool {
		if m, ok := targets[x]; ok {
			return m == y
		}
		for _, v := range targets {
			if v == y {
				return false
			}
		}
		targets[x] = y
		return true
	}
	sameRegion := func(x, y *TryBegin) bool {
		if m, ok := regions[x]; ok {
			return m == y
		}
		regions[x] = y
		return x.PushLasti == y.PushLasti && sameTarget(x.Target, y.Target)
	}
	for k := range a {
		switch x := a[k].(type) {
		case *Label:
			y, ok := b[k].(*Label)
			if !ok || !sameTarget(x, y) {
				return false
			}
		case *Instr:
			y, ok := b[k].(*Instr)
			if !ok || x.Op() != y.Op() || x.Location() != y.Location() {
				return false
			}
			if xt := x.Target(); xt != nil {
				yt := y.Target()
				if yt == nil || !sameTarget(xt, yt) {
					return false
				}
			} else if !OperandEqual(x.Arg(), y.Arg()) {
				return false
			}
		case *TryBegin:
			y, ok := b[k].(*TryBegin)
			if !ok || !sameRegion(x, y) {
				return false
			}
		case *TryEnd:
			y, ok := b[k].(*TryEnd)
			if !ok || !sameRegion(x.Entry, y.Entry) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
