package observability

import (
	"testing"
	"time"

	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("boot-a", "GET", "/ready", 200, 12*time.Millisecond)
	RecordBindAttempt("boot-a", "success")
	RecordReadinessWait("boot-a", "ready", 40*time.Millisecond)
	RecordGateDecision("boot-a", "cutscene", "first_time")
	RecordFlagWrite("cutscene-seen", true)

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
