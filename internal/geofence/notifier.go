package geofence

import (
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/models"
)

// Notifier surfaces a discovery alert to the user. The platform push
// mechanics live behind this interface.
type Notifier interface {
	Notify(loc models.LocationSummary, distanceMeters float64)
}

// LogNotifier writes discovery alerts to the log. Stands in for a real
// platform notification channel.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(loc models.LocationSummary, distanceMeters float64) {
	n.Logger.Info("You are close! Location discovered",
		zap.String("location", loc.Name),
		zap.String("location_id", loc.ID.String()),
		zap.Float64("distance_m", distanceMeters),
	)
}
