// Package capture runs the content side of a tab: on request it extracts the page it owns
// and asks the background to save the result.
package capture

import (
	"context"
	"fmt"
	"log/slog"

	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
	"learnsnap/internal/transport"
)

type Extractor interface {
	Extract(ctx context.Context, page domain.DOMSnapshot) (*domain.SnapshotDraft, error)
}

type Agent struct {
	TabID     string
	Source    ports.PageSource
	Extractor Extractor
	Bus       *transport.Bus
	// Background sends the SAVE_SNAPSHOT_DATA request.
	Background *transport.Client
	Logger     *slog.Logger
	// OnSaved, when set, observes the outcome of every capture: the save response, or a
	// failure response when the capture did not get that far.
	OnSaved func(domain.MessageResponse)

	stop func()
}

// Start listens on the tab's endpoint.
func (a *Agent) Start() error {
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	stop, err := a.Bus.Listen(transport.TabEndpoint(a.TabID), a.handle)
	if err != nil {
		return err
	}
	a.stop = stop
	return nil
}

// Stop removes the endpoint; later deliveries to this tab fail as gone.
func (a *Agent) Stop() {
	if a.stop != nil {
		a.stop()
	}
}

func (a *Agent) handle(ctx context.Context, msg domain.Message) domain.MessageResponse {
	if msg.Type != domain.KindCaptureRequest {
		return domain.Failure(msg, fmt.Sprintf("No handler for message type: %s", msg.Type))
	}
	resp, err := a.Capture(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "capture failed", "tab", a.TabID, "err", err)
		fail := domain.Failure(msg, err.Error())
		if a.OnSaved != nil {
			a.OnSaved(fail)
		}
		return fail
	}
	resp.RequestID = msg.RequestID
	return resp
}

// Capture extracts the current page and sends it to the background for saving.
func (a *Agent) Capture(ctx context.Context) (domain.MessageResponse, error) {
	page, err := a.Source.Snapshot(ctx)
	if err != nil {
		return domain.MessageResponse{}, fmt.Errorf("read page: %w", err)
	}
	draft, err := a.Extractor.Extract(ctx, page)
	if err != nil {
		return domain.MessageResponse{}, err
	}
	a.Logger.InfoContext(ctx, "content extracted", "tab", a.TabID, "url", draft.URL, "words", draft.Metadata.WordCount)
	resp, err := a.Background.Request(ctx, domain.KindSaveSnapshot, draft)
	if err != nil {
		return domain.MessageResponse{}, fmt.Errorf("save snapshot: %w", err)
	}
	if a.OnSaved != nil {
		a.OnSaved(resp)
	}
	return resp, nil
}
