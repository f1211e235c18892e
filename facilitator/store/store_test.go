package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStatusLattice(t *testing.T) {
	tests := []struct {
		from, to MessageStatus
		forward  bool
	}{
		{MessageStatusUndeclared, MessageStatusDeclared, true},
		{MessageStatusUndeclared, MessageStatusProgressed, true},
		{MessageStatusUndeclared, MessageStatusRevoked, true},
		{MessageStatusDeclared, MessageStatusProgressed, true},
		{MessageStatusDeclared, MessageStatusRevocationDeclared, true},
		{MessageStatusRevocationDeclared, MessageStatusRevoked, true},
		{MessageStatusDeclared, MessageStatusUndeclared, false},
		{MessageStatusProgressed, MessageStatusDeclared, false},
		{MessageStatusProgressed, MessageStatusUndeclared, false},
		{MessageStatusProgressed, MessageStatusRevoked, false},
		{MessageStatusRevocationDeclared, MessageStatusProgressed, false},
		{MessageStatusRevoked, MessageStatusRevocationDeclared, false},
		{MessageStatusDeclared, MessageStatusDeclared, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.forward, tt.from.IsForward(tt.to))
			assert.Equal(t, tt.forward || tt.from == tt.to, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, MessageStatusProgressed.IsTerminal())
	assert.True(t, MessageStatusRevoked.IsTerminal())
	assert.False(t, MessageStatusDeclared.IsTerminal())
	assert.False(t, MessageStatus("bogus").Valid())
	assert.False(t, MessageStatus("bogus").IsTerminal())
	assert.Equal(t, MessageStatusUndeclared, StatusOrUndeclared(nil))
}

func TestMessageMerge(t *testing.T) {
	t.Run("partial saves never null out fields", func(t *testing.T) {
		stored := &Message{
			MessageHash: "0xm",
			Sender:      Ptr("0xsender"),
			Nonce:       Ptr(uint64(7)),
		}

		changed := stored.Merge(&Message{MessageHash: "0xm", Secret: Ptr("0xsecret")})
		require.True(t, changed)
		assert.Equal(t, "0xsender", *stored.Sender)
		assert.Equal(t, uint64(7), *stored.Nonce)
		assert.Equal(t, "0xsecret", *stored.Secret)
	})

	t.Run("identical update reports no change", func(t *testing.T) {
		stored := &Message{MessageHash: "0xm", Sender: Ptr("0xsender"), SourceStatus: Ptr(MessageStatusDeclared)}
		assert.False(t, stored.Merge(&Message{Sender: Ptr("0xsender"), SourceStatus: Ptr(MessageStatusDeclared)}))
		assert.False(t, stored.Merge(&Message{}))
	})

	t.Run("merged pointers are not aliased to the update", func(t *testing.T) {
		stored := &Message{MessageHash: "0xm"}
		update := &Message{Sender: Ptr("0xa")}
		stored.Merge(update)
		*update.Sender = "0xb"
		assert.Equal(t, "0xa", *stored.Sender)
	})
}

func TestGatewayAndRequestMerge(t *testing.T) {
	gw := &Gateway{GatewayGA: "0xg", RemoteGA: Ptr("0xr")}
	assert.True(t, gw.Merge(&Gateway{LastRemoteGatewayProvedBlockHeight: Ptr(uint64(10))}))
	assert.Equal(t, "0xr", *gw.RemoteGA)
	assert.Equal(t, uint64(10), *gw.LastRemoteGatewayProvedBlockHeight)

	req := &Request{RequestHash: "0xq", Amount: Ptr("100")}
	assert.True(t, req.Merge(&Request{MessageHash: Ptr("0xm")}))
	assert.Equal(t, "100", *req.Amount)
	assert.False(t, req.Merge(&Request{MessageHash: Ptr("0xm")}))

	tx := &Transaction{ID: 1, Gas: Ptr("21000")}
	assert.True(t, tx.Merge(&Transaction{TxHash: Ptr("0xh")}))
	assert.Equal(t, "21000", *tx.Gas)
}

func TestSchemaModels(t *testing.T) {
	assert.Len(t, SchemaModels(), 6)
}
