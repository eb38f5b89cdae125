package ports

import (
	"context"
	"time"
)

// OwnerSettings are the per-user preferences the task service needs when
// resolving deadlines and deciding whether to notify.
type OwnerSettings struct {
	Location             *time.Location
	NotificationsEnabled bool
	DefaultLockAfterDue  bool
}

// SettingsProvider resolves settings for a task owner. Implementations fall
// back to sane defaults (UTC, notifications on) when the owner is unknown.
type SettingsProvider interface {
	OwnerSettings(ctx context.Context, ownerID string) OwnerSettings
}
