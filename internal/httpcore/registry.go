package httpcore

// Registry is the fd-indexed set of all active Contexts, substituting a
// hash table for the C original's singly-linked list (spec section 9
// explicitly allows this substitution; the externally observable
// contract is membership by SelectFD and O(1) amortized add/remove).
type Registry struct {
	bySelectFD map[int]*Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bySelectFD: make(map[int]*Context)}
}

// Add registers ctx under its current SelectFD.
func (reg *Registry) Add(ctx *Context) {
	reg.bySelectFD[ctx.SelectFD] = ctx
}

// Lookup returns the Context registered for fd, or nil.
func (reg *Registry) Lookup(fd int) *Context {
	return reg.bySelectFD[fd]
}

// Retarget moves ctx's registration from its old SelectFD to newFD,
// used when the proxy dispatcher hands a Context back to the client fd.
func (reg *Registry) Retarget(ctx *Context, newFD int) {
	delete(reg.bySelectFD, ctx.SelectFD)
	ctx.SelectFD = newFD
	reg.bySelectFD[newFD] = ctx
}

// Remove drops the Context registered under fd.
func (reg *Registry) Remove(fd int) {
	delete(reg.bySelectFD, fd)
}

// RemoveSharing removes every Context whose ClientFD equals clientFD --
// used at session teardown, since a request may have spawned an
// auxiliary CGI-input Context sharing the same client fd.
func (reg *Registry) RemoveSharing(clientFD int) {
	for fd, ctx := range reg.bySelectFD {
		if ctx.ClientFD == clientFD {
			delete(reg.bySelectFD, fd)
		}
	}
}

// Len reports the number of registered Contexts, for /debug/contexts.
func (reg *Registry) Len() int {
	return len(reg.bySelectFD)
}

// RoleHistogram counts active Contexts per role, for /debug/contexts.
func (reg *Registry) RoleHistogram() map[string]int {
	hist := make(map[string]int)
	for _, ctx := range reg.bySelectFD {
		hist[ctx.Role.String()]++
	}
	return hist
}
