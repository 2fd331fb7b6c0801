package middleware

import "github.com/aretw0/sitescript/pkg/ports"

// Middleware allows wrapping a ScriptStore to add behavior.
type Middleware func(ports.ScriptStore) ports.ScriptStore

// Chain wraps store with mws. The first middleware is the outermost.
func Chain(store ports.ScriptStore, mws ...Middleware) ports.ScriptStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
