package insight

import "context"

// Completer is the generative-model capability: prompt in, completion text
// out. Remote, network-bound, not under the pipeline's control; backends are
// interchangeable and the generator never branches on which one is active.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
