package services

import "context"

// persistentContext keeps ctx's values but drops its cancellation, for work
// that follows an already committed transition.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
