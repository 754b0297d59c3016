package remote

import (
	"context"

	"gradebook/internal/gradebook"
)

// Mirror adapts a Client to gradebook.Mirror for background pushes.
type Mirror struct {
	client *Client
}

// NewMirror wraps client.
func NewMirror(client *Client) *Mirror {
	return &Mirror{client: client}
}

// Push implements gradebook.Mirror.
func (m *Mirror) Push(ctx context.Context, endpoint string, payload gradebook.SyncPayload) (gradebook.PushOutcome, error) {
	res, err := m.client.Push(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if res.Outcome == OutcomeOK {
		return gradebook.PushOK, nil
	}
	return gradebook.PushUnknown, nil
}

var _ gradebook.Mirror = (*Mirror)(nil)
