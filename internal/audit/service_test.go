package audit_test

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
)

// A malformed message must be committed, not retried forever; the nil DB
// would panic if the handler tried to persist it.
func TestHandleEventMalformedCommits(t *testing.T) {
	s := &audit.Service{Log: zap.NewNop()}
	err := s.HandleEvent(context.Background(), kafkago.Message{Value: []byte("{not json")})
	require.NoError(t, err)
}
