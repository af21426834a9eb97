package utils

// Guard runs cleanup for a resource acquired partway through a function that then fails, so
// constructors that open several handles can release what they already hold on every early return.
// Use it as:
//
//	bus, err := i2c.Open(device)
//	if err != nil { return nil, err }
//	guard := NewGuard(func() { bus.Close() })
//	defer guard.OnFail()
//	if err := configure(bus); err != nil { return nil, err }
//	guard.Success()
//	return bus, nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called first.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success declares the function succeeded and the cleanup does not need to run.
func (guard *Guard) Success() {
	guard.success = true
}
