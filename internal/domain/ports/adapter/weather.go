package adapter

import (
	"context"

	"assistant-relay/internal/domain/model"
)

// WeatherService fronts the external forecast provider. Refresh is throttled
// to the configured minimum interval unless force is set; readers see the
// last fetched data.
type WeatherService interface {
	Refresh(ctx context.Context, force bool) error
	Summary() model.WeatherSummary
	DayReport() string
	WeekReport() string
}
