package notifications

import "github.com/paws-and-plates/lead-radar/internal/models"

// Notifier delivers lead queue digests to the configured channels.
type Notifier interface {
	SendDigest(snapshot *models.Snapshot) error
}
