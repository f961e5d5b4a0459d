package stack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/events"
	"github.com/pulumi/pulumi/sdk/v3/go/common/apitype"
	"go.uber.org/zap"
)

const (
	statusPending = iota
	statusRefreshed
	statusRunning
	statusDone
)

// Events returns a channel for Pulumi engine events. Each event is logged at debug level under
// "pulumi.events" and resource progress is reported to the context's provision.Progress.
func Events(ctx context.Context, action string) chan<- events.EngineEvent {
	ech := make(chan events.EngineEvent)
	go track(ctx, action, ech)
	return ech
}

func track(ctx context.Context, action string, ech <-chan events.EngineEvent) {
	log := logging.GetLogger(ctx).Named("pulumi.events")
	progress := provision.GetProgress(ctx)
	status := fmt.Sprintf("%s stack", action)

	resources := make(map[string]int)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-ech:
			if !ok {
				progress.Complete(status)
				return
			}
			buf.Reset()
			if err := enc.Encode(e); err != nil {
				log.Error("Failed to encode pulumi event", zap.Error(err))
				continue
			}
			log.Debug("Pulumi event", zap.String("event", strings.TrimSpace(buf.String())))

			switch {
			case e.PreludeEvent != nil:
				progress.UpdateIndeterminate(status)

			case e.ResourcePreEvent != nil:
				md := e.ResourcePreEvent.Metadata
				if md.Op == apitype.OpRefresh {
					resources[md.URN] = statusPending
				} else {
					resources[md.URN] = statusRunning
				}

			case e.ResOutputsEvent != nil:
				md := e.ResOutputsEvent.Metadata
				if md.Op == apitype.OpRefresh {
					resources[md.URN] = statusRefreshed
				} else {
					resources[md.URN] = statusDone
				}

			case e.ResOpFailedEvent != nil:
				md := e.ResOpFailedEvent.Metadata
				resources[md.URN] = statusDone
				log.Warn("resource operation failed", zap.String("urn", md.URN), zap.String("op", string(md.Op)))

			case e.DiagnosticEvent != nil && e.DiagnosticEvent.Severity == "error":
				log.Warn(strings.TrimSpace(e.DiagnosticEvent.Message), zap.String("urn", e.DiagnosticEvent.URN))
			}

			current, total := 0, 0
			for _, code := range resources {
				total += statusDone
				current += code
			}
			if total > 0 {
				progress.Update(status, current, total)
			}
		}
	}
}
