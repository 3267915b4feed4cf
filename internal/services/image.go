package services

import "context"

// ImageService generates an illustration for a narrative beat and
// returns a URL to the stored image. Implementations live outside this
// service; the engine only calls it behind a feature flag and treats
// failures as non-fatal.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt string, sessionID string) (string, error)
}
