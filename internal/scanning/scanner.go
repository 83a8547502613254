package scanning

import (
	"context"
	"errors"
)

var (
	// ErrNoLines is returned when no text could be recognized on the image
	ErrNoLines = errors.New("no text lines recognized")
	// ErrTimeout is returned when recognition exceeded its time budget
	ErrTimeout = errors.New("text recognition timed out")
	// ErrUnavailable is returned when the recognition service could not be used
	ErrUnavailable = errors.New("text recognition service unavailable")
)

// Scanner defines the interface for receipt text recognition
type Scanner interface {
	// ScanReceipt recognizes the text on a receipt image/PDF and returns it
	// as ordered, non-empty lines
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) ([]string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// classifyError maps a transport error onto ErrTimeout or ErrUnavailable
func classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrUnavailable, err)
}
