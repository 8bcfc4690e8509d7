package metatile

import "errors"

var (
	// ErrInvalidRequest reports a request that violates a precondition
	// (bad metatile factor, zoom missing from the resolution table, tile
	// outside the dataset bounds).
	ErrInvalidRequest = errors.New("invalid metatile request")
	// ErrPoolAcquire reports that no rendering engine could be acquired.
	// The renderer was never invoked.
	ErrPoolAcquire = errors.New("engine pool acquisition failed")
	// ErrRender reports an engine failure or panic during rendering.
	ErrRender = errors.New("metatile render failed")
	// ErrEncode reports a failure probing or encoding one sub-tile. It fails
	// the whole metatile.
	ErrEncode = errors.New("tile extraction or encode failed")
)
