package webhook

import (
	"context"

	"github.com/scullers68/sprintintel/trackerclient"
)

// ConnectionChecker is the narrow tracker-client surface configuration
// validation needs.
type ConnectionChecker interface {
	TestConnection(ctx context.Context) (bool, error)
	InstanceType() trackerclient.InstanceType
}

// ConfigurationReport is a read-only diagnostic: it never mutates state.
type ConfigurationReport struct {
	Valid           bool
	Issues          []string
	Recommendations []string
}

// ValidateConfiguration checks that the webhook delivery path is usable:
// tracker reachability and, for Cloud instances, a reminder that webhook
// registration happens in the tracker's own admin UI rather than via API.
func ValidateConfiguration(ctx context.Context, tracker ConnectionChecker, secretConfigured bool, recognizedEventTypes []string) ConfigurationReport {
	report := ConfigurationReport{Valid: true}

	if tracker.InstanceType() == trackerclient.InstanceCloud {
		report.Recommendations = append(report.Recommendations,
			"for a hosted tracker instance, webhooks are registered through the tracker's own admin interface")
	}

	if ok, err := tracker.TestConnection(ctx); err != nil || !ok {
		report.Valid = false
		msg := "cannot connect to tracker"
		if err != nil {
			msg += ": " + err.Error()
		}
		report.Issues = append(report.Issues, msg)
	} else {
		report.Recommendations = append(report.Recommendations, "connection to tracker is working correctly")
	}

	if !secretConfigured {
		report.Issues = append(report.Issues, "no shared secret configured: inbound webhook signatures will not be validated")
	}

	if len(recognizedEventTypes) == 0 {
		report.Issues = append(report.Issues, "no recognized webhook event types configured")
		report.Valid = false
	}

	return report
}
