package reporter

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

// Console logs every snapshot, mainly for local debugging.
type Console struct{}

func (Console) Name() string { return "console" }

func (Console) Report(snapshots []metrics.NamedSnapshot) error {
	for _, snapshot := range snapshots {
		data, err := json.Marshal(snapshot.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot for '%s': %w", snapshot.Full, err)
		}

		log.Printf("metric %s: %s", snapshot.Full, data)
	}

	return nil
}
