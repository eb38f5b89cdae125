package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authapp "taskhub/internal/auth/app"
	"taskhub/internal/logging"
	taskadapters "taskhub/internal/task/adapters"
	taskapp "taskhub/internal/task/app"
	taskports "taskhub/internal/task/ports"
)

// BuildTaskService wires the task service against the same backend the auth
// service uses.
func BuildTaskService(pool *pgxpool.Pool, auth *authapp.Service, logger logging.Logger) (*taskapp.Service, error) {
	logger = logging.OrNop(logger)
	var repo taskports.TaskRepository = taskadapters.NewMemoryTaskRepo()
	if pool != nil {
		pgRepo := taskadapters.NewPostgresTaskRepo(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		repo = pgRepo
		logger.Info("task repository backed by Postgres")
	}
	return taskapp.NewService(repo, preferencesSettings{auth: auth}, logger), nil
}

// preferencesSettings adapts account preferences to the task service's
// settings port.
type preferencesSettings struct {
	auth *authapp.Service
}

func (p preferencesSettings) OwnerSettings(ctx context.Context, ownerID string) taskports.OwnerSettings {
	settings := taskports.OwnerSettings{
		Location:             time.UTC,
		NotificationsEnabled: true,
	}
	user, err := p.auth.GetUser(ctx, ownerID)
	if err != nil {
		return settings
	}
	if loc, err := time.LoadLocation(user.Preferences.Timezone); err == nil {
		settings.Location = loc
	}
	settings.NotificationsEnabled = user.Preferences.NotificationsEnabled
	settings.DefaultLockAfterDue = user.Preferences.DefaultLockAfterDue
	return settings
}
