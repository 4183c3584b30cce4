package relay

import "context"

// Gateway is the outbound half of the messaging transport.
//
//go:generate mockery --name=Gateway --dir=. --output=./mocks --filename=gateway_mock.go --case=underscore
type Gateway interface {
	SendText(ctx context.Context, to SenderKey, text string) error
	SendItem(ctx context.Context, to SenderKey, item PayloadItem) error
	// SendGroup delivers items as a single grouped unit. Captions are taken
	// from the items themselves.
	SendGroup(ctx context.Context, to SenderKey, items []PayloadItem) error
}
